// Package fixtures provides rendered x.com pages for parser tests.
package fixtures

import (
	"fmt"
	"strings"
)

// Article describes one tweet article to render.
type Article struct {
	Handle   string
	Name     string
	ID       string
	Avatar   string
	Verified string // badge markup colour: "", "blue", "gold" or "gray"
	Time     string
	Text     string // inner HTML of the tweetText div
	Quote    *Article
}

// Page wraps articles in a minimal document.
func Page(articles ...Article) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><title>X</title></head>\n<body>\n<main>\n")
	for _, a := range articles {
		b.WriteString(a.render())
	}
	b.WriteString("</main>\n</body>\n</html>\n")
	return b.String()
}

func (a Article) render() string {
	var b strings.Builder
	b.WriteString(`<article data-testid="tweet">` + "\n")
	if a.Avatar != "" {
		fmt.Fprintf(&b, `  <div data-testid="Tweet-User-Avatar"><a href="/%s"><img src="%s" alt=""/></a></div>`+"\n", a.Handle, a.Avatar)
	}
	b.WriteString(`  <div data-testid="User-Name">`)
	if a.Name != "" {
		fmt.Fprintf(&b, `<a href="/%s"><span>%s</span></a>`, a.Handle, a.Name)
	}
	if a.Verified != "" {
		fmt.Fprintf(&b, `<svg data-testid="icon-verified" aria-label="Verified account" class="badge-%s"></svg>`, a.Verified)
	}
	fmt.Fprintf(&b, `<a href="/%s"><span>@%s</span></a>`, a.Handle, a.Handle)
	if a.Time != "" {
		fmt.Fprintf(&b, `<a href="/%s/status/%s"><time datetime="%s">%s</time></a>`, a.Handle, a.ID, a.Time, a.Time)
	}
	b.WriteString("</div>\n")
	if a.Text != "" {
		fmt.Fprintf(&b, "  <div data-testid=\"tweetText\" dir=\"auto\">\n    %s\n  </div>\n", a.Text)
	}
	if a.Quote != nil {
		q := *a.Quote
		fmt.Fprintf(&b, `  <div role="link"><a href="/%s/status/%s"><span>@%s</span></a><div data-testid="tweetText">%s</div></div>`+"\n",
			q.Handle, q.ID, q.Handle, q.Text)
	}
	b.WriteString("</article>\n")
	return b.String()
}

// BasicTweet is a single plain-text tweet page.
func BasicTweet() string {
	return Page(Article{
		Handle: "johndoe",
		Name:   "John Doe",
		ID:     "123",
		Avatar: "https://pbs.twimg.com/profile_images/1/avatar.jpg",
		Time:   "2026-01-01T12:00:00.000Z",
		Text:   `<span>This is a test tweet content.</span>`,
	})
}

// RichTweet contains a shortened link, a mention, a hashtag, an emoji image
// and a line break.
func RichTweet() string {
	return Page(Article{
		Handle: "techtribesje",
		Name:   "techtribes.je",
		ID:     "2006396789411172607",
		Time:   "2026-02-10T09:30:00.000Z",
		Text: `<span>New post by </span><a href="/simonbrown" role="link">@simonbrown</a>` +
			`<span> about </span><a href="/hashtag/jersey?src=hashtag_click">#jersey</a>` +
			`<span> </span><img alt="🎉" src="https://abs-0.twimg.com/emoji/v2/svg/1f389.svg"/>` +
			`<br/><span>Read: </span><a href="https://t.co/AbC123?x=1&amp;y=2" rel="noopener">blog.example.com/post…</a>` +
			`<span> &lt;3</span>`,
	})
}

// VerifiedTweet is a tweet from an account with a badge of the given colour.
func VerifiedTweet(colour string) string {
	return Page(Article{
		Handle:   "verified",
		Name:     "Verified Org",
		ID:       "999",
		Verified: colour,
		Time:     "2026-01-01T12:00:00Z",
		Text:     `<span>Official announcement</span>`,
	})
}

// QuoteTweet quotes another tweet inside the same article.
func QuoteTweet() string {
	return Page(Article{
		Handle: "alice",
		Name:   "Alice",
		ID:     "200",
		Time:   "2026-03-01T08:00:00Z",
		Text:   `<span>Agreed!</span>`,
		Quote: &Article{
			Handle: "bob",
			ID:     "100",
			Text:   `<span>Original thought</span>`,
		},
	})
}

// Timeline is a profile page with two own tweets, a retweet of another
// account and an ad without a status link.
func Timeline() string {
	return Page(
		Article{Handle: "alice", Name: "Alice", ID: "3", Time: "2026-03-03T08:00:00Z", Text: `<span>third</span>`},
		Article{Handle: "carol", Name: "Carol", ID: "9", Time: "2026-03-02T08:00:00Z", Text: `<span>retweeted</span>`},
		Article{Handle: "alice", Name: "Alice", ID: "1", Time: "2026-03-01T08:00:00Z", Text: `<span>first</span>`},
		Article{Handle: "promo", Name: "Ad", Text: `<span>Buy now</span>`},
	)
}

// ProtectedProfile is the page shown for a protected account.
func ProtectedProfile() string {
	return `<!DOCTYPE html>
<html>
<body>
<div data-testid="emptyState">
    <span>These posts are protected</span>
</div>
</body>
</html>
`
}

// EmptyPage has no tweets at all.
func EmptyPage() string {
	return Page()
}
