package feed_test

import (
	"strings"
	"testing"
	"time"

	"tribefeed/internal/adapters/feed"
	"tribefeed/internal/domain"
)

func newTweet(t *testing.T, author domain.Author, id uint64, body string, created time.Time) *domain.Tweet {
	t.Helper()
	tweet, err := domain.NewTweet(author, id, body, created)
	if err != nil {
		t.Fatal(err)
	}
	return tweet
}

func TestBuild_MapsTweetsToItems(t *testing.T) {
	// Arrange
	older := time.Date(2013, 5, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	tweets := []*domain.Tweet{
		newTweet(t, domain.Author{Handle: "simonbrown", Name: "Simon Brown"}, 2, "Hello #jersey &amp; @techtribesje", newer),
		newTweet(t, domain.Author{Handle: "techtribesje"}, 1, "short", older),
	}

	// Act
	f := feed.Build("techtribes.je", "http://localhost:3000/", tweets)

	// Assert
	if len(f.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(f.Items))
	}
	first := f.Items[0]
	if first.Link.Href != "http://twitter.com/simonbrown/status/2" || first.Id != first.Link.Href {
		t.Errorf("item link/id: %q / %q", first.Link.Href, first.Id)
	}
	if first.Title != "Hello #jersey & @techtribesje" {
		t.Errorf("Title = %q", first.Title)
	}
	if !strings.Contains(first.Description, `<a href="/search?q=%23jersey">#jersey</a>`) {
		t.Errorf("Description should be the linkified body, got %q", first.Description)
	}
	if first.Author.Name != "Simon Brown (@simonbrown)" {
		t.Errorf("Author = %q", first.Author.Name)
	}
	if f.Items[1].Author.Name != "@techtribesje" {
		t.Errorf("Author without a name = %q", f.Items[1].Author.Name)
	}
	if !f.Created.Equal(newer) {
		t.Errorf("feed Created = %v, want newest tweet %v", f.Created, newer)
	}
}

func TestBuild_LongTweet_TitleIsTruncated(t *testing.T) {
	body := strings.Repeat("word ", 40)
	tweets := []*domain.Tweet{newTweet(t, domain.Author{Handle: "a"}, 1, body, time.Now())}

	f := feed.Build("t", "http://x/", tweets)

	title := f.Items[0].Title
	if got := len(strings.Fields(title)); got != 15 {
		t.Errorf("title has %d words, want 15: %q", got, title)
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("truncated title should end with an ellipsis: %q", title)
	}
}

func TestBuild_RendersRSSAndAtom(t *testing.T) {
	tweets := []*domain.Tweet{newTweet(t, domain.Author{Handle: "a"}, 7, "see https://example.com", time.Now())}
	f := feed.Build("Everything", "http://localhost/", tweets)

	rss, err := f.ToRss()
	if err != nil {
		t.Fatalf("ToRss() error = %v", err)
	}
	atom, err := f.ToAtom()
	if err != nil {
		t.Fatalf("ToAtom() error = %v", err)
	}

	for name, doc := range map[string]string{"rss": rss, "atom": atom} {
		if !strings.Contains(doc, "http://twitter.com/a/status/7") {
			t.Errorf("%s document is missing the permalink", name)
		}
	}
}

func TestBuild_NoTweets_StillValid(t *testing.T) {
	f := feed.Build("Empty", "http://localhost/", nil)

	if _, err := f.ToRss(); err != nil {
		t.Errorf("ToRss() error = %v", err)
	}
	if f.Created.IsZero() {
		t.Error("Created should default to now")
	}
}
