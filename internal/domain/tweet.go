// Package domain contains the core business entities and rules.
package domain

import (
	"time"

	"tribefeed/internal/markup"
)

// ContentSource is the author of a tweet, reduced to what link building
// needs. Profiles, tribes and memberships live outside this package.
type ContentSource interface {
	// TwitterHandle returns the author's handle without the leading '@'.
	TwitterHandle() string
}

// Author is the ContentSource scraped alongside a tweet.
type Author struct {
	Name         string
	Handle       string
	AvatarURL    string
	Verified     bool
	VerifiedType VerifiedType
}

// TwitterHandle implements ContentSource.
func (a Author) TwitterHandle() string { return a.Handle }

// VerifiedType represents the type of verification badge.
type VerifiedType string

const (
	VerifiedNone VerifiedType = "none"
	VerifiedBlue VerifiedType = "blue"
	VerifiedGold VerifiedType = "gold"
	VerifiedGray VerifiedType = "gray"
)

// Tweet is a single ingested post. It is immutable once constructed; the
// permalink and HTML body are derived from its fields on every call.
type Tweet struct {
	source    ContentSource
	id        uint64
	body      string
	createdAt time.Time
}

// NewTweet builds a Tweet. The body is kept verbatim and must already be
// safe to embed in HTML (see markup.EscapeText).
// Returns ErrMissingSource if source is nil.
func NewTweet(source ContentSource, id uint64, body string, createdAt time.Time) (*Tweet, error) {
	if source == nil {
		return nil, ErrMissingSource
	}
	return &Tweet{
		source:    source,
		id:        id,
		body:      body,
		createdAt: createdAt,
	}, nil
}

// Source returns the tweet's author.
func (t *Tweet) Source() ContentSource { return t.source }

// Handle is shorthand for Source().TwitterHandle().
func (t *Tweet) Handle() string { return t.source.TwitterHandle() }

// ID returns the identifier assigned by Twitter.
func (t *Tweet) ID() uint64 { return t.id }

// Body returns the raw tweet text.
func (t *Tweet) Body() string { return t.body }

// CreatedAt returns when the tweet was posted.
func (t *Tweet) CreatedAt() time.Time { return t.createdAt }

// Author returns the source as an Author when it is one.
func (t *Tweet) Author() (Author, bool) {
	a, ok := t.source.(Author)
	return a, ok
}

// Permalink returns the canonical public URL of the tweet.
func (t *Tweet) Permalink() string {
	return Permalink(t.source.TwitterHandle(), t.id)
}

// BodyAsHTML returns the body with URLs, mentions and hashtags linked.
func (t *Tweet) BodyAsHTML() string {
	return markup.Render(t.body)
}
