// Package pages holds full HTML documents.
package pages

// feedLink is an alternate feed advertised in the page head.
type feedLink struct {
	title string
	href  string
}

func profileURL(handle string) string {
	return "http://twitter.com/" + handle
}

func handleFeed(handle string) string {
	return "/twitter/" + handle + "/feed.rss"
}
