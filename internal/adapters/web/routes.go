package web

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures the application routes. scrapeLimit guards the
// endpoints that may trigger a scrape; one handler so both share its counts.
func SetupRoutes(app *fiber.App, handlers *Handlers, scrapeLimit fiber.Handler) {
	app.Static("/static", "./static")

	app.Get("/", handlers.Home)
	app.Get("/search", handlers.Search)

	// Feeds
	app.Get("/feed.rss", handlers.RSS)
	app.Get("/feed.atom", handlers.Atom)
	app.Get("/twitter/:handle/feed.rss", handlers.HandleRSS)

	// Targets of rendered mention links
	app.Get("/twitter/:handle", handlers.ByHandle)

	// Tweet view - mirrors Twitter URL structure
	// Example: /acgfbr/status/2006396789411172607
	app.Get("/:handle/status/:id", handlers.ViewTweet)

	// HTMX endpoints; both may trigger a scrape
	app.Post("/fetch", scrapeLimit, handlers.FetchTweet)
	app.Get("/api/tweet/:handle/:id", scrapeLimit, handlers.APIGetTweet)
}
