package usecases

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"tribefeed/pkg/log"
)

// RefreshReport summarises one refresh run.
type RefreshReport struct {
	Handles  int
	Tweets   int
	Failed   []string
	Duration time.Duration
}

// RefreshTimelinesUseCase re-scrapes the timelines of tracked accounts and
// stores what it finds.
type RefreshTimelinesUseCase struct {
	scraper TweetScraper
	repo    TweetRepository
	cache   TweetCache
	handles []string
}

// NewRefreshTimelinesUseCase creates a refresh job for the given handles.
func NewRefreshTimelinesUseCase(scraper TweetScraper, repo TweetRepository, cache TweetCache, handles []string) *RefreshTimelinesUseCase {
	return &RefreshTimelinesUseCase{
		scraper: scraper,
		repo:    repo,
		cache:   cache,
		handles: append([]string(nil), handles...),
	}
}

// Execute refreshes every handle in turn. A failing handle is logged and
// reported; the others still refresh. The returned error is non-nil only
// when ctx ends the run early.
func (uc *RefreshTimelinesUseCase) Execute(ctx context.Context) (RefreshReport, error) {
	start := time.Now()
	report := RefreshReport{Handles: len(uc.handles)}

	for _, handle := range uc.handles {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, errors.Wrap(err, "refresh interrupted")
		}

		n, err := uc.refresh(log.WithFields(ctx, "handle", handle), handle)
		if err != nil {
			log.GlobalWarnCtx(ctx, "timeline refresh failed", "handle", handle, "error", err)
			report.Failed = append(report.Failed, handle)
			continue
		}
		report.Tweets += n
	}

	report.Duration = time.Since(start)
	log.GlobalInfoCtx(ctx, "timelines refreshed",
		"handles", report.Handles,
		"tweets", report.Tweets,
		"failed", len(report.Failed),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

func (uc *RefreshTimelinesUseCase) refresh(ctx context.Context, handle string) (int, error) {
	tweets, err := uc.scraper.ScrapeTimeline(ctx, handle)
	if err != nil {
		return 0, errors.Wrapf(err, "scrape timeline of %s", handle)
	}

	if err := uc.repo.Save(ctx, tweets...); err != nil {
		return 0, errors.Wrapf(err, "save timeline of %s", handle)
	}
	for _, t := range tweets {
		uc.cache.Set(t)
	}

	log.GlobalDebugCtx(ctx, "timeline refreshed", "tweets", len(tweets))
	return len(tweets), nil
}
