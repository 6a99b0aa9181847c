package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"tribefeed/internal/domain"
	"tribefeed/internal/markup"
)

// statusPathRegex matches "/handle/status/123" with an optional x.com or
// twitter.com origin in front.
var statusPathRegex = regexp.MustCompile(`^(?:https?://(?:www\.|mobile\.)?(?:twitter|x)\.com)?/(\w+)/status/(\d+)`)

// ParseTweets reads every tweet article on a rendered page. Articles
// without text or without a status link are skipped. The returned bodies
// are HTML-escaped plain text.
//
// Returns domain.ErrTweetPrivate for protected accounts and
// domain.ErrTextNotFound when the page holds no readable tweet.
func ParseTweets(page string, sel Selectors) ([]*domain.Tweet, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, errors.Wrap(err, "parse page")
	}

	if sel.Protected != "" && doc.Find(sel.Protected).Length() > 0 {
		return nil, domain.ErrTweetPrivate
	}

	var tweets []*domain.Tweet
	doc.Find(sel.TweetContainer).Each(func(i int, s *goquery.Selection) {
		if tweet, ok := parseArticle(s, sel); ok {
			tweets = append(tweets, tweet)
		}
	})

	if len(tweets) == 0 {
		return nil, domain.ErrTextNotFound
	}
	return tweets, nil
}

func parseArticle(s *goquery.Selection, sel Selectors) (*domain.Tweet, bool) {
	textSel := s.Find(sel.TweetText).First()
	if textSel.Length() == 0 {
		return nil, false
	}
	body := cleanTextPreserveNewlines(extractText(textSel))
	if body == "" {
		return nil, false
	}

	stamp := s.Find(sel.Timestamp).First()
	handle, id, ok := statusLink(s, stamp)
	if !ok {
		return nil, false
	}

	author := domain.Author{
		Handle:       handle,
		Name:         strings.TrimSpace(s.Find(sel.AuthorName).First().Text()),
		AvatarURL:    avatarURL(s.Find(sel.AuthorAvatar).First()),
		VerifiedType: domain.VerifiedNone,
	}
	if badge := s.Find(sel.VerifiedBadge).First(); badge.Length() > 0 {
		author.Verified = true
		author.VerifiedType = detectVerifiedType(badge)
	}

	var created time.Time
	if datetime, exists := stamp.Attr("datetime"); exists {
		created, _ = time.Parse(time.RFC3339, datetime)
	}

	tweet, err := domain.NewTweet(author, id, markup.EscapeText(body), created)
	if err != nil {
		return nil, false
	}
	return tweet, true
}

// statusLink finds the tweet's own permalink. The timestamp is wrapped in
// it, which tells it apart from links to quoted tweets.
func statusLink(article, stamp *goquery.Selection) (string, uint64, bool) {
	candidates := []*goquery.Selection{
		stamp.Closest("a"),
		article.Find(`a[href*="/status/"]`).First(),
	}
	for _, a := range candidates {
		href, exists := a.Attr("href")
		if !exists {
			continue
		}
		if handle, id, ok := parseStatusPath(href); ok {
			return handle, id, true
		}
	}
	return "", 0, false
}

func parseStatusPath(href string) (string, uint64, bool) {
	m := statusPathRegex.FindStringSubmatch(href)
	if m == nil {
		return "", 0, false
	}
	id, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], id, true
}

func avatarURL(s *goquery.Selection) string {
	if !s.Is("img") {
		s = s.Find("img").First()
	}
	src, _ := s.Attr("src")
	return src
}

// detectVerifiedType reads the badge colour from its markup.
func detectVerifiedType(badge *goquery.Selection) domain.VerifiedType {
	outer, _ := goquery.OuterHtml(badge)
	outer = strings.ToLower(outer)
	switch {
	case strings.Contains(outer, "gold"):
		return domain.VerifiedGold
	case strings.Contains(outer, "gray"), strings.Contains(outer, "grey"):
		return domain.VerifiedGray
	default:
		return domain.VerifiedBlue
	}
}

// extractText flattens tweet text markup to plain text. External links are
// replaced by their full href, emoji images by their alt text.
func extractText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(i int, n *goquery.Selection) {
		switch goquery.NodeName(n) {
		case "#text":
			b.WriteString(n.Text())
		case "br":
			b.WriteString("\n")
		case "img":
			alt, _ := n.Attr("alt")
			b.WriteString(alt)
		case "a":
			href, _ := n.Attr("href")
			if isExternalLink(href) {
				b.WriteString(href)
			} else {
				b.WriteString(extractText(n))
			}
		case "div", "p":
			b.WriteString(extractText(n))
			b.WriteString("\n")
		default:
			b.WriteString(extractText(n))
		}
	})
	return b.String()
}

// isExternalLink reports whether href leaves x.com. Mentions and hashtags
// are relative or point at x.com search pages.
func isExternalLink(href string) bool {
	if href == "" || strings.HasPrefix(href, "/") {
		return false
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host != "x.com" && host != "twitter.com" && host != "mobile.twitter.com"
}

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// cleanTextPreserveNewlines collapses runs of spaces and trims each line
// but keeps paragraph breaks.
func cleanTextPreserveNewlines(text string) string {
	text = horizontalSpace.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
