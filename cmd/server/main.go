package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"tribefeed/internal/adapters/cache"
	"tribefeed/internal/adapters/scraper"
	"tribefeed/internal/adapters/store"
	"tribefeed/internal/adapters/web"
	"tribefeed/internal/config"
	"tribefeed/internal/scheduler"
	"tribefeed/internal/usecases"
	"tribefeed/pkg/log"
	"tribefeed/pkg/log/transporters"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.GlobalFatal("server exited", "error", err)
		log.Default().Close()
		os.Exit(1)
	}
	log.Default().Close()
}

func run() error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel, transporters.NewStdout())
	log.SetDefault(logger)

	selectors, err := scraper.LoadSelectors(cfg.SelectorsPath, 10*time.Second)
	if err != nil {
		return err
	}
	defer selectors.Close()

	// Single persistent browser, one tab at a time
	browserPool, err := scraper.NewBrowserPool(cfg.ChromePath)
	if err != nil {
		return err
	}
	defer browserPool.Close()

	db, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()

	tweetCache := cache.NewMemoryCache(cfg.CacheTTL)
	defer tweetCache.Close()

	// Use cases
	tweetScraper := scraper.NewTwitterScraper(browserPool, selectors)
	scrapeUC := usecases.NewScrapeTweetUseCase(tweetScraper)
	getTweetUC := usecases.NewGetTweetUseCase(tweetCache, db, scrapeUC)
	listUC := usecases.NewListTweetsUseCase(db, cfg.PageSize)
	refreshUC := usecases.NewRefreshTimelinesUseCase(tweetScraper, db, tweetCache, cfg.TrackedHandles)

	// Background timeline refresh
	var refresher *scheduler.Scheduler
	if len(cfg.TrackedHandles) > 0 {
		refresher, err = scheduler.New("refresh-timelines", cfg.RefreshSchedule, func(ctx context.Context) error {
			_, err := refreshUC.Execute(ctx)
			return err
		})
		if err != nil {
			return err
		}
		refresher.Start(cfg.RefreshOnStart)
	} else {
		logger.Info("no tracked handles configured, timeline refresh disabled")
	}

	// Web
	app := fiber.New(fiber.Config{
		AppName:               "tribefeed",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New(web.RequestIDConfig()))
	app.Use(web.RequestIDToContextMiddleware())
	app.Use(web.RequestLoggerMiddleware())
	web.SetupRoutes(app, web.NewHandlers(getTweetUC, listUC),
		limiter.New(web.RateLimiterConfig(cfg.ScrapeLimit, time.Minute)))

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("starting tribefeed", "port", cfg.Port, "tracked_handles", len(cfg.TrackedHandles))
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return err
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := app.ShutdownWithContext(ctx)
	if refresher != nil {
		if err := refresher.Stop(ctx); err != nil {
			// db and cache close on return; the job must be gone by then.
			logger.Warn("refresh did not stop in time, waiting for it", "error", err)
			refresher.Wait()
		}
	}
	return shutdownErr
}
