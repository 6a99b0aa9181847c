package usecases

import (
	"context"
	"strings"

	"tribefeed/internal/domain"
	"tribefeed/internal/markup"
)

// ListTweetsUseCase serves the timeline, handle and search pages.
type ListTweetsUseCase struct {
	repo  TweetRepository
	limit int
}

// NewListTweetsUseCase creates a ListTweetsUseCase returning at most limit
// tweets per call.
func NewListTweetsUseCase(repo TweetRepository, limit int) *ListTweetsUseCase {
	return &ListTweetsUseCase{repo: repo, limit: limit}
}

// Recent returns the newest tweets.
func (uc *ListTweetsUseCase) Recent(ctx context.Context) ([]*domain.Tweet, error) {
	return uc.repo.Recent(ctx, uc.limit)
}

// ByHandle returns the newest tweets of a handle.
func (uc *ListTweetsUseCase) ByHandle(ctx context.Context, handle string) ([]*domain.Tweet, error) {
	return uc.repo.ByHandle(ctx, strings.TrimPrefix(handle, "@"), uc.limit)
}

// Search interprets query the way the rendered links produce it:
//   - "#tag" lists tweets that Render would link #tag in (case-insensitive),
//   - "@handle" lists tweets by that handle,
//   - anything else is a substring search.
//
// An empty query returns nothing.
func (uc *ListTweetsUseCase) Search(ctx context.Context, query string) ([]*domain.Tweet, error) {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return nil, nil
	case len(query) > 1 && query[0] == '@':
		return uc.ByHandle(ctx, query)
	case len(query) > 1 && query[0] == '#':
		return uc.hashtag(ctx, query[1:])
	default:
		return uc.repo.Search(ctx, query, uc.limit)
	}
}

// hashtag narrows a substring search to tweets that really carry the tag, so
// "#go" does not match "#golang" or a URL fragment.
func (uc *ListTweetsUseCase) hashtag(ctx context.Context, tag string) ([]*domain.Tweet, error) {
	candidates, err := uc.repo.Search(ctx, "#"+tag, uc.limit*4)
	if err != nil {
		return nil, err
	}

	var out []*domain.Tweet
	for _, t := range candidates {
		if hasHashtag(t.Body(), tag) {
			out = append(out, t)
			if len(out) == uc.limit {
				break
			}
		}
	}
	return out, nil
}

func hasHashtag(body, tag string) bool {
	for _, h := range markup.Hashtags(body) {
		if strings.EqualFold(h, tag) {
			return true
		}
	}
	return false
}
