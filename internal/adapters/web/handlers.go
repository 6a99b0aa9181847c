package web

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gorilla/feeds"

	"tribefeed/internal/adapters/feed"
	"tribefeed/internal/domain"
	"tribefeed/internal/usecases"
	"tribefeed/pkg/log"
	"tribefeed/templates/components"
	"tribefeed/templates/pages"
	"tribefeed/templates/partials"
)

const scrapeTimeout = 30 * time.Second

// Handlers contains the HTTP handlers for the web application.
type Handlers struct {
	getTweet *usecases.GetTweetUseCase
	list     *usecases.ListTweetsUseCase
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(getTweet *usecases.GetTweetUseCase, list *usecases.ListTweetsUseCase) *Handlers {
	return &Handlers{
		getTweet: getTweet,
		list:     list,
	}
}

// render is a helper to render templ components.
func render(c *fiber.Ctx, component templ.Component) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return adaptor.HTTPHandler(templ.Handler(component, templ.WithStatus(c.Response().StatusCode())))(c)
}

// Home renders the URL form and the newest stored tweets.
func (h *Handlers) Home(c *fiber.Ctx) error {
	tweets, err := h.list.Recent(c.UserContext())
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "list recent tweets failed", "error", err)
		return renderError(c, err)
	}
	return render(c, pages.Home(tweets))
}

// ByHandle renders the stored timeline of one account.
func (h *Handlers) ByHandle(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if !handleRegex.MatchString(handle) {
		return renderError(c, domain.ErrInvalidURL)
	}

	tweets, err := h.list.ByHandle(c.UserContext(), handle)
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "list tweets by handle failed", "handle", handle, "error", err)
		return renderError(c, err)
	}
	return render(c, pages.Timeline(handle, tweets))
}

// Search renders tweets matching ?q=, which hashtag links point at.
func (h *Handlers) Search(c *fiber.Ctx) error {
	query := c.Query("q")

	tweets, err := h.list.Search(c.UserContext(), query)
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "search failed", "query", query, "error", err)
		return renderError(c, err)
	}
	return render(c, pages.Search(query, tweets))
}

// ViewTweet renders a tweet by handle and ID (mirrors Twitter URL structure).
// Shows skeleton immediately, HTMX loads content.
func (h *Handlers) ViewTweet(c *fiber.Ctx) error {
	handle, id, err := parseTweetParams(c.Params("handle"), c.Params("id"))
	if err != nil {
		return renderError(c, err)
	}
	return render(c, pages.TweetViewWithSkeleton(handle, id))
}

// FetchTweet handles the HTMX form post with a pasted tweet URL.
func (h *Handlers) FetchTweet(c *fiber.Ctx) error {
	url := c.FormValue("url")

	handle, id, err := ParseTweetURL(url)
	if err != nil {
		log.GlobalWarnCtx(c.UserContext(), "invalid tweet URL", "url", url)
		return renderError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), scrapeTimeout)
	defer cancel()

	tweet, err := h.getTweet.Execute(ctx, handle, id)
	if err != nil {
		log.GlobalErrorCtx(ctx, "fetch tweet failed", "handle", handle, "tweet_id", id, "error", err)
		return renderError(c, err)
	}

	// Shareable URL that mirrors the Twitter structure.
	c.Set("HX-Push-Url", "/"+tweet.Handle()+"/status/"+strconv.FormatUint(tweet.ID(), 10))
	return render(c, partials.TweetContent(tweet))
}

// APIGetTweet returns the tweet card that replaces the skeleton.
func (h *Handlers) APIGetTweet(c *fiber.Ctx) error {
	handle, id, err := parseTweetParams(c.Params("handle"), c.Params("id"))
	if err != nil {
		return render(c, components.ErrorMessage(friendlyError(err)))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), scrapeTimeout)
	defer cancel()

	tweet, err := h.getTweet.Execute(ctx, handle, id)
	if err != nil {
		log.GlobalErrorCtx(ctx, "api get tweet failed", "handle", handle, "tweet_id", id, "error", err)
		return render(c, components.ErrorMessage(friendlyError(err)))
	}
	return render(c, components.TweetCard(tweet))
}

// RSS serves the newest tweets of every account as RSS 2.0.
func (h *Handlers) RSS(c *fiber.Ctx) error {
	f, err := h.everythingFeed(c)
	if err != nil {
		return err
	}
	return sendFeed(c, f, false)
}

// Atom serves the newest tweets of every account as Atom.
func (h *Handlers) Atom(c *fiber.Ctx) error {
	f, err := h.everythingFeed(c)
	if err != nil {
		return err
	}
	return sendFeed(c, f, true)
}

// HandleRSS serves one account's stored tweets as RSS 2.0.
func (h *Handlers) HandleRSS(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if !handleRegex.MatchString(handle) {
		return fiber.ErrNotFound
	}

	tweets, err := h.list.ByHandle(c.UserContext(), handle)
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "handle feed failed", "handle", handle, "error", err)
		return fiber.ErrInternalServerError
	}
	return sendFeed(c, feed.Build("@"+handle, c.BaseURL()+"/twitter/"+handle, tweets), false)
}

func (h *Handlers) everythingFeed(c *fiber.Ctx) (*feeds.Feed, error) {
	tweets, err := h.list.Recent(c.UserContext())
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "feed failed", "error", err)
		return nil, fiber.ErrInternalServerError
	}
	return feed.Build("tribefeed: everything", c.BaseURL()+"/", tweets), nil
}

func sendFeed(c *fiber.Ctx, f *feeds.Feed, atom bool) error {
	var (
		body string
		err  error
	)
	if atom {
		c.Set(fiber.HeaderContentType, "application/atom+xml; charset=utf-8")
		body, err = f.ToAtom()
	} else {
		c.Set(fiber.HeaderContentType, "application/rss+xml; charset=utf-8")
		body, err = f.ToRss()
	}
	if err != nil {
		log.GlobalErrorCtx(c.UserContext(), "feed encoding failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.SendString(body)
}

// renderError renders err with a matching status: a bare message for
// htmx requests, a full page otherwise.
func renderError(c *fiber.Ctx, err error) error {
	c.Status(statusFor(err))
	if c.Get("HX-Request") == "true" {
		return render(c, components.ErrorMessage(friendlyError(err)))
	}
	return render(c, pages.Error(friendlyError(err)))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrTweetPrivate):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, domain.ErrTweetNotFound), errors.Is(err, domain.ErrTextNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.Is(err, domain.ErrScrapingFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// friendlyError returns a neutral, non-blaming error message.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrTweetNotFound):
		return "This tweet couldn't be found. It might be private or no longer available."
	case errors.Is(err, domain.ErrTweetPrivate):
		return "This tweet isn't available. It might be from a private account."
	case errors.Is(err, domain.ErrInvalidURL):
		return "That doesn't look like a tweet URL. Try pasting a link from twitter.com or x.com"
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many requests. Please wait a moment and try again."
	case errors.Is(err, domain.ErrTextNotFound):
		return "This tweet couldn't be loaded. It might not be publicly available."
	default:
		return "Unable to load this tweet right now. Please try again in a moment."
	}
}
