package usecases

import (
	"context"
	"time"

	"tribefeed/internal/domain"
	"tribefeed/pkg/log"
)

// TweetScraper reads tweets from the live site.
type TweetScraper interface {
	// Scrape returns the tweet with the given id from its status page.
	Scrape(ctx context.Context, handle string, id uint64) (*domain.Tweet, error)
	// ScrapeTimeline returns the account's own tweets visible on its profile.
	ScrapeTimeline(ctx context.Context, handle string) ([]*domain.Tweet, error)
}

// ScrapeTweetUseCase fetches one tweet straight from the site, bypassing
// cache and store.
type ScrapeTweetUseCase struct {
	scraper TweetScraper
}

func NewScrapeTweetUseCase(scraper TweetScraper) *ScrapeTweetUseCase {
	return &ScrapeTweetUseCase{scraper: scraper}
}

// Execute scrapes handle/status/id. The author of the result may differ
// from handle after a rename; the permalink then carries the new handle.
// A result with another id counts as not found.
func (uc *ScrapeTweetUseCase) Execute(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	ctx = log.WithFields(ctx, "handle", handle, "tweet_id", id)
	start := time.Now()

	tweet, err := uc.scraper.Scrape(ctx, handle, id)
	switch {
	case err != nil:
		return nil, err
	case tweet.ID() != id:
		log.GlobalWarnCtx(ctx, "scraped tweet id mismatch", "scraped_id", tweet.ID())
		return nil, domain.ErrTweetNotFound
	}

	log.GlobalDebugCtx(ctx, "tweet scraped",
		"permalink", tweet.Permalink(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return tweet, nil
}
