package markup

import "strings"

// matchFunc reports whether a token starts at s[i] and where it ends.
// before is the byte preceding s[i] in the original body, or 0 at the start.
type matchFunc func(s string, i int, before byte) (end int, ok bool)

// isWordChar is the token-boundary classifier: ASCII letters, ASCII digits
// and underscore. Every byte of a multi-byte UTF-8 sequence is >= 0x80, so
// scanning byte by byte never splits a rune inside a token.
func isWordChar(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// isSpace matches the ASCII whitespace set that ends a URL.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// scanWord returns the index just past the run of word characters at s[i].
func scanWord(s string, i int) int {
	for i < len(s) && isWordChar(s[i]) {
		i++
	}
	return i
}

func matchURL(s string, i int, _ byte) (int, bool) {
	if s[i] != 'h' {
		return 0, false
	}
	rest := s[i:]
	var scheme int
	switch {
	case strings.HasPrefix(rest, "http://"):
		scheme = len("http://")
	case strings.HasPrefix(rest, "https://"):
		scheme = len("https://")
	default:
		return 0, false
	}

	end := i + scheme
	for end < len(s) && !isSpace(s[end]) {
		end++
	}
	if end == i+scheme {
		return 0, false
	}
	return end, true
}

func matchMention(s string, i int, _ byte) (int, bool) {
	if s[i] != '@' || i+1 >= len(s) || !isWordChar(s[i+1]) {
		return 0, false
	}
	return scanWord(s, i+1), true
}

// matchHashtag requires a non-word byte before the '#'. In "##tag" the first
// '#' is not followed by a word character and the second is preceded by '#',
// so only "#tag" is claimed.
func matchHashtag(s string, i int, before byte) (int, bool) {
	if s[i] != '#' || isWordChar(before) || i+1 >= len(s) || !isWordChar(s[i+1]) {
		return 0, false
	}
	return scanWord(s, i+1), true
}
