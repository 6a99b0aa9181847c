package components_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"tribefeed/internal/domain"
	"tribefeed/templates/components"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestTweetCard_RendersLinkifiedBody(t *testing.T) {
	// Arrange
	author := domain.Author{Handle: "simonbrown", Name: "Simon <Brown>", Verified: true, VerifiedType: domain.VerifiedBlue}
	tweet, _ := domain.NewTweet(author, 42, "hi @techtribesje &lt;b&gt; #jersey", time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC))

	// Act
	html := render(t, components.TweetCard(tweet))

	// Assert
	for _, want := range []string{
		`id="tweet-42"`,
		`<a href="/twitter/techtribesje">@techtribesje</a>`,
		`<a href="/search?q=%23jersey">#jersey</a>`,
		`&lt;b&gt;`,
		`Simon &lt;Brown&gt;`,
		`href="http://twitter.com/simonbrown/status/42"`,
		`data-badge="blue"`,
		`datetime="2013-05-01T10:00:00Z"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q in\n%s", want, html)
		}
	}
	if strings.Contains(html, "<b>") || strings.Contains(html, "<Brown>") {
		t.Errorf("unescaped markup leaked into output:\n%s", html)
	}
}

func TestTweetList_Empty(t *testing.T) {
	html := render(t, components.TweetList(nil, "Nothing yet"))

	if html != `<p class="empty">Nothing yet</p>` {
		t.Errorf("got %q", html)
	}
}

func TestTweetSkeleton_PointsAtAPI(t *testing.T) {
	html := render(t, components.TweetSkeleton("jack", 20))

	if !strings.Contains(html, `hx-get="/api/tweet/jack/20"`) {
		t.Errorf("got %q", html)
	}
}
