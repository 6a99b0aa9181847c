package domain

import "strconv"

const permalinkBase = "http://twitter.com/"

// Permalink builds http://twitter.com/{handle}/status/{id}. The handle is
// inserted verbatim; handles are restricted to [A-Za-z0-9_] and need no
// escaping.
func Permalink(handle string, id uint64) string {
	return permalinkBase + handle + "/status/" + strconv.FormatUint(id, 10)
}
