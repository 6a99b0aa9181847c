// Package components holds the reusable page fragments.
package components

import (
	"strconv"

	"tribefeed/internal/domain"
)

func displayName(t *domain.Tweet) string {
	if a, ok := t.Author(); ok && a.Name != "" {
		return a.Name
	}
	return "@" + t.Handle()
}

func avatarURL(t *domain.Tweet) string {
	a, _ := t.Author()
	return a.AvatarURL
}

// badgeType is the verified colour, or "" for unverified accounts.
func badgeType(t *domain.Tweet) string {
	if a, ok := t.Author(); ok && a.Verified {
		return string(a.VerifiedType)
	}
	return ""
}

func shownTime(t *domain.Tweet) string {
	return t.CreatedAt().UTC().Format("15:04 · Jan 2, 2006")
}

func apiPath(handle string, id uint64) string {
	return "/api/tweet/" + handle + "/" + strconv.FormatUint(id, 10)
}
