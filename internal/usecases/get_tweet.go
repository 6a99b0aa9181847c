package usecases

import (
	"context"
	"errors"
	"strings"

	"tribefeed/internal/domain"
	"tribefeed/pkg/log"
)

// TweetCache defines the interface for caching tweets.
type TweetCache interface {
	Get(handle string, id uint64) (*domain.Tweet, bool)
	Set(tweet *domain.Tweet)
	SetAs(handle string, tweet *domain.Tweet)
}

// TweetRepository persists tweets between refresh cycles.
type TweetRepository interface {
	Save(ctx context.Context, tweets ...*domain.Tweet) error
	Get(ctx context.Context, handle string, id uint64) (*domain.Tweet, error)
	GetByID(ctx context.Context, id uint64) (*domain.Tweet, error)
	Recent(ctx context.Context, limit int) ([]*domain.Tweet, error)
	ByHandle(ctx context.Context, handle string, limit int) ([]*domain.Tweet, error)
	Search(ctx context.Context, term string, limit int) ([]*domain.Tweet, error)
}

// GetTweetUseCase retrieves a tweet from the cache, then the repository,
// and scrapes it only when neither has it.
type GetTweetUseCase struct {
	cache   TweetCache
	repo    TweetRepository
	scraper *ScrapeTweetUseCase
}

// NewGetTweetUseCase creates a new GetTweetUseCase.
func NewGetTweetUseCase(cache TweetCache, repo TweetRepository, scraper *ScrapeTweetUseCase) *GetTweetUseCase {
	return &GetTweetUseCase{
		cache:   cache,
		repo:    repo,
		scraper: scraper,
	}
}

// Execute returns the tweet identified by handle and id. A tweet whose
// author has since been renamed is also cached under the requested handle,
// so the old URL keeps resolving without another scrape.
func (uc *GetTweetUseCase) Execute(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	if tweet, found := uc.cache.Get(handle, id); found {
		log.GlobalDebugCtx(ctx, "cache hit", "handle", handle, "tweet_id", id)
		return tweet, nil
	}

	tweet, err := uc.lookup(ctx, handle, id)
	switch {
	case err == nil:
		log.GlobalDebugCtx(ctx, "store hit", "handle", handle, "tweet_id", id)
		uc.remember(handle, tweet)
		return tweet, nil
	case !errors.Is(err, domain.ErrTweetNotFound):
		// Store failures fall through to scraping.
		log.GlobalWarnCtx(ctx, "store lookup failed, scraping", "handle", handle, "tweet_id", id, "error", err)
	default:
		log.GlobalDebugCtx(ctx, "cache miss, scraping", "handle", handle, "tweet_id", id)
	}

	tweet, err = uc.scraper.Execute(ctx, handle, id)
	if err != nil {
		return nil, err
	}

	if err := uc.repo.Save(ctx, tweet); err != nil {
		log.GlobalWarnCtx(ctx, "saving scraped tweet failed", "handle", handle, "tweet_id", id, "error", err)
	}
	uc.remember(handle, tweet)

	return tweet, nil
}

// lookup tries the exact key first, then the id alone.
func (uc *GetTweetUseCase) lookup(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	tweet, err := uc.repo.Get(ctx, handle, id)
	if !errors.Is(err, domain.ErrTweetNotFound) {
		return tweet, err
	}
	return uc.repo.GetByID(ctx, id)
}

func (uc *GetTweetUseCase) remember(requested string, tweet *domain.Tweet) {
	uc.cache.Set(tweet)
	if !strings.EqualFold(requested, tweet.Handle()) {
		uc.cache.SetAs(requested, tweet)
	}
}
