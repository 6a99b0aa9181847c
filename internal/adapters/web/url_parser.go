package web

import (
	"regexp"
	"strconv"

	"tribefeed/internal/domain"
)

// tweetURLRegex matches twitter.com, x.com and mobile.twitter.com status
// URLs. Anything after the id (query, /photo/1) is ignored.
var tweetURLRegex = regexp.MustCompile(
	`^https?://(?:www\.|mobile\.)?(?:twitter\.com|x\.com)/(\w+)/status/(\d+)`,
)

var handleRegex = regexp.MustCompile(`^\w{1,50}$`)

// ParseTweetURL extracts the handle and tweet id from a Twitter/X URL.
// Permalink output always parses. Returns domain.ErrInvalidURL otherwise.
func ParseTweetURL(url string) (handle string, id uint64, err error) {
	matches := tweetURLRegex.FindStringSubmatch(url)
	if matches == nil {
		return "", 0, domain.ErrInvalidURL
	}
	id, err = strconv.ParseUint(matches[2], 10, 64)
	if err != nil {
		return "", 0, domain.ErrInvalidURL
	}
	return matches[1], id, nil
}

// parseTweetParams validates the handle and id path segments.
func parseTweetParams(handle, rawID string) (string, uint64, error) {
	if !handleRegex.MatchString(handle) {
		return "", 0, domain.ErrInvalidURL
	}
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return "", 0, domain.ErrInvalidURL
	}
	return handle, id, nil
}
