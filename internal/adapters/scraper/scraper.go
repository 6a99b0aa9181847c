// Package scraper reads tweets from x.com through a headless Chrome.
package scraper

import (
	"context"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"tribefeed/internal/domain"
	"tribefeed/pkg/log"
)

const defaultBaseURL = "https://x.com"

// TabRunner hands out browser tabs. BrowserPool is the production one.
type TabRunner interface {
	WithTab(ctx context.Context, fn func(tabCtx context.Context) error) error
}

// TwitterScraper renders x.com pages and parses the tweets on them.
type TwitterScraper struct {
	pool      TabRunner
	selectors *SelectorConfig
	baseURL   string
	logger    *log.Logger
}

// NewTwitterScraper creates a scraper that renders pages in pool.
func NewTwitterScraper(pool TabRunner, selectors *SelectorConfig) *TwitterScraper {
	return &TwitterScraper{
		pool:      pool,
		selectors: selectors,
		baseURL:   defaultBaseURL,
		logger:    log.Default().Named("scraper"),
	}
}

// Scrape fetches one tweet from its status page.
func (s *TwitterScraper) Scrape(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	url := s.baseURL + "/" + handle + "/status/" + strconv.FormatUint(id, 10)

	tweets, err := s.scrapePage(ctx, url)
	if err != nil {
		return nil, err
	}

	// A status page also lists replies; pick the requested tweet.
	for _, t := range tweets {
		if t.ID() == id {
			return t, nil
		}
	}
	return nil, domain.ErrTweetNotFound
}

// ScrapeTimeline fetches the tweets currently visible on a profile page.
// Retweets of other accounts are dropped.
func (s *TwitterScraper) ScrapeTimeline(ctx context.Context, handle string) ([]*domain.Tweet, error) {
	tweets, err := s.scrapePage(ctx, s.baseURL+"/"+handle)
	if err != nil {
		return nil, err
	}

	own := tweets[:0]
	for _, t := range tweets {
		if strings.EqualFold(t.Handle(), handle) {
			own = append(own, t)
		}
	}
	return own, nil
}

func (s *TwitterScraper) scrapePage(ctx context.Context, url string) ([]*domain.Tweet, error) {
	sel := s.selectors.Current()

	ready := sel.TweetContainer
	if sel.Protected != "" {
		ready += ", " + sel.Protected
	}

	var page string
	err := s.pool.WithTab(ctx, func(tabCtx context.Context) error {
		return chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.WaitVisible(ready, chromedp.ByQuery),
			chromedp.OuterHTML("html", &page, chromedp.ByQuery),
		)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.WarnCtx(ctx, "page render failed", "url", url, "error", err)
		return nil, errors.WithMessage(domain.ErrScrapingFailed, err.Error())
	}

	tweets, err := ParseTweets(page, sel)
	if err != nil {
		s.logger.DebugCtx(ctx, "no tweets parsed", "url", url, "error", err)
		return nil, err
	}
	s.logger.DebugCtx(ctx, "page scraped", "url", url, "tweets", len(tweets))
	return tweets, nil
}
