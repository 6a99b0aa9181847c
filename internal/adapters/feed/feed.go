// Package feed turns tweets into RSS and Atom documents.
package feed

import (
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/feeds"

	"tribefeed/internal/domain"
)

const maxTitleWords = 15

// Build creates a feed whose items link to the tweets' permalinks and carry
// the linkified body as description. link is the page the feed describes.
func Build(title, link string, tweets []*domain.Tweet) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: link},
		Id:          link,
		Description: title,
		Created:     time.Now().UTC(),
	}
	if len(tweets) > 0 {
		feed.Created = tweets[0].CreatedAt()
	}

	for _, t := range tweets {
		item := &feeds.Item{
			Title:       itemTitle(t),
			Link:        &feeds.Link{Href: t.Permalink()},
			Id:          t.Permalink(),
			Author:      &feeds.Author{Name: "@" + t.Handle()},
			Created:     t.CreatedAt(),
			Description: t.BodyAsHTML(),
		}
		if a, ok := t.Author(); ok && a.Name != "" {
			item.Author.Name = a.Name + " (@" + a.Handle + ")"
		}
		if item.Created.After(feed.Created) {
			feed.Created = item.Created
		}
		feed.Items = append(feed.Items, item)
	}
	return feed
}

// itemTitle shortens long tweets to their first words.
func itemTitle(t *domain.Tweet) string {
	text := html.UnescapeString(t.Body())
	if utf8.RuneCountInString(text) <= 50 {
		return strings.Join(strings.Fields(text), " ")
	}
	words := strings.Fields(text)
	if len(words) > maxTitleWords {
		return strings.Join(words[:maxTitleWords], " ") + "…"
	}
	return strings.Join(words, " ")
}
