package scraper

import (
	"errors"
	"strings"
	"testing"
	"time"

	"tribefeed/internal/domain"
	"tribefeed/test/fixtures"
)

func TestParseTweets_BasicTweet_ExtractsAllFields(t *testing.T) {
	// Arrange
	page := fixtures.BasicTweet()

	// Act
	tweets, err := ParseTweets(page, DefaultSelectors())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tweets) != 1 {
		t.Fatalf("got %d tweets, want 1", len(tweets))
	}
	tweet := tweets[0]
	if tweet.ID() != 123 || tweet.Handle() != "johndoe" {
		t.Errorf("identity: got %s/%d, want johndoe/123", tweet.Handle(), tweet.ID())
	}
	if tweet.Body() != "This is a test tweet content." {
		t.Errorf("Body: got %q", tweet.Body())
	}
	if want := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC); !tweet.CreatedAt().Equal(want) {
		t.Errorf("CreatedAt: got %v, want %v", tweet.CreatedAt(), want)
	}
	author, ok := tweet.Author()
	if !ok {
		t.Fatal("expected an Author source")
	}
	if author.Name != "John Doe" {
		t.Errorf("Name: got %q, want John Doe", author.Name)
	}
	if author.AvatarURL != "https://pbs.twimg.com/profile_images/1/avatar.jpg" {
		t.Errorf("AvatarURL: got %q", author.AvatarURL)
	}
	if author.Verified || author.VerifiedType != domain.VerifiedNone {
		t.Errorf("unexpected verification: %+v", author)
	}
}

func TestParseTweets_RichTweet_FlattensAndEscapes(t *testing.T) {
	// Act
	tweets, err := ParseTweets(fixtures.RichTweet(), DefaultSelectors())

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "New post by @simonbrown about #jersey 🎉\nRead: https://t.co/AbC123?x=1&amp;y=2 &lt;3"
	if got := tweets[0].Body(); got != want {
		t.Errorf("Body:\n got %q\nwant %q", got, want)
	}
	if tweets[0].ID() != 2006396789411172607 {
		t.Errorf("ID: got %d", tweets[0].ID())
	}
}

func TestParseTweets_RichTweet_RendersLinks(t *testing.T) {
	tweets, err := ParseTweets(fixtures.RichTweet(), DefaultSelectors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	html := tweets[0].BodyAsHTML()

	for _, want := range []string{
		`<a href="/twitter/simonbrown">@simonbrown</a>`,
		`<a href="/search?q=%23jersey">#jersey</a>`,
		`<a href="https://t.co/AbC123?x=1&amp;y=2" target="_blank">https://t.co/AbC123?x=1&amp;y=2</a>`,
		`&lt;3`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("BodyAsHTML missing %q\n got %q", want, html)
		}
	}
}

func TestParseTweets_VerifiedTweet_DetectsBadge(t *testing.T) {
	testCases := []struct {
		colour string
		want   domain.VerifiedType
	}{
		{colour: "blue", want: domain.VerifiedBlue},
		{colour: "gold", want: domain.VerifiedGold},
		{colour: "gray", want: domain.VerifiedGray},
	}

	for _, tc := range testCases {
		t.Run(tc.colour, func(t *testing.T) {
			tweets, err := ParseTweets(fixtures.VerifiedTweet(tc.colour), DefaultSelectors())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			author, _ := tweets[0].Author()
			if !author.Verified {
				t.Error("expected author to be verified")
			}
			if author.VerifiedType != tc.want {
				t.Errorf("VerifiedType: got %v, want %v", author.VerifiedType, tc.want)
			}
		})
	}
}

func TestParseTweets_QuoteTweet_UsesOuterTweet(t *testing.T) {
	tweets, err := ParseTweets(fixtures.QuoteTweet(), DefaultSelectors())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tweets) != 1 {
		t.Fatalf("got %d tweets, want 1", len(tweets))
	}
	if tweets[0].Handle() != "alice" || tweets[0].ID() != 200 || tweets[0].Body() != "Agreed!" {
		t.Errorf("got %s/%d %q, want alice/200 \"Agreed!\"", tweets[0].Handle(), tweets[0].ID(), tweets[0].Body())
	}
}

func TestParseTweets_Timeline_SkipsArticlesWithoutStatusLink(t *testing.T) {
	tweets, err := ParseTweets(fixtures.Timeline(), DefaultSelectors())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []uint64
	for _, tw := range tweets {
		ids = append(ids, tw.ID())
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 9 || ids[2] != 1 {
		t.Errorf("ids: got %v, want [3 9 1]", ids)
	}
}

func TestParseTweets_Errors(t *testing.T) {
	testCases := []struct {
		name string
		page string
		want error
	}{
		{name: "protected profile", page: fixtures.ProtectedProfile(), want: domain.ErrTweetPrivate},
		{name: "no tweets", page: fixtures.EmptyPage(), want: domain.ErrTextNotFound},
		{name: "not html at all", page: "", want: domain.ErrTextNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTweets(tc.page, DefaultSelectors())

			if !errors.Is(err, tc.want) {
				t.Errorf("error: got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseStatusPath(t *testing.T) {
	testCases := []struct {
		href   string
		handle string
		id     uint64
		ok     bool
	}{
		{href: "/jack/status/20", handle: "jack", id: 20, ok: true},
		{href: "https://x.com/acgfbr/status/2006396789411172607", handle: "acgfbr", id: 2006396789411172607, ok: true},
		{href: "https://mobile.twitter.com/jack/status/20/photo/1", handle: "jack", id: 20, ok: true},
		{href: "/jack", ok: false},
		{href: "https://example.com/jack/status/20", ok: false},
		{href: "/jack/status/99999999999999999999", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.href, func(t *testing.T) {
			handle, id, ok := parseStatusPath(tc.href)

			if ok != tc.ok || handle != tc.handle || id != tc.id {
				t.Errorf("got (%q, %d, %v), want (%q, %d, %v)", handle, id, ok, tc.handle, tc.id, tc.ok)
			}
		})
	}
}

func TestIsExternalLink(t *testing.T) {
	testCases := []struct {
		href string
		want bool
	}{
		{href: "https://t.co/abc", want: true},
		{href: "http://example.com/x", want: true},
		{href: "/simonbrown", want: false},
		{href: "https://x.com/hashtag/go", want: false},
		{href: "https://www.twitter.com/search?q=go", want: false},
		{href: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.href, func(t *testing.T) {
			if got := isExternalLink(tc.href); got != tc.want {
				t.Errorf("isExternalLink(%q) = %v, want %v", tc.href, got, tc.want)
			}
		})
	}
}

func TestCleanTextPreserveNewlines(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "collapses spaces", input: "a   b\t c", want: "a b c"},
		{name: "trims lines", input: "  a  \n  b  ", want: "a\nb"},
		{name: "keeps one blank line", input: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "blank lines with spaces", input: "a\n  \n \n  \nb", want: "a\n\nb"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanTextPreserveNewlines(tc.input); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
