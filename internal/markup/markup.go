// Package markup turns plain tweet text into an HTML fragment with URLs,
// @-mentions and #-hashtags converted into links.
//
// Rendering runs three passes in a fixed order: URLs, then mentions, then
// hashtags. Each pass only scans text that no earlier pass has claimed, so a
// link produced by one pass is never re-matched by the next one. Token
// boundaries are always judged against the original body text.
//
// The engine does not HTML-escape anything. Bodies must already be safe to
// embed; use EscapeText before constructing a tweet from untrusted input.
package markup

import "strings"

// Kind identifies what a token was recognised as.
type Kind int

const (
	Text Kind = iota
	URL
	Mention
	Hashtag
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case URL:
		return "url"
	case Mention:
		return "mention"
	case Hashtag:
		return "hashtag"
	default:
		return "text"
	}
}

// Token is a run of body text together with how it was classified.
// Value is always the original text, e.g. "#golang" or "@jack".
type Token struct {
	Kind  Kind
	Value string
}

// HTML returns the markup for the token. Plain text is returned verbatim.
func (t Token) HTML() string {
	switch t.Kind {
	case URL:
		return `<a href="` + t.Value + `" target="_blank">` + t.Value + `</a>`
	case Mention:
		return `<a href="/twitter/` + t.Value[1:] + `">` + t.Value + `</a>`
	case Hashtag:
		return `<a href="/search?q=%23` + t.Value[1:] + `">` + t.Value + `</a>`
	default:
		return t.Value
	}
}

// pass claims tokens of a single kind inside the text tokens of its input.
type pass struct {
	kind  Kind
	match matchFunc
}

// passes is the fixed rendering order.
var passes = []pass{
	{kind: URL, match: matchURL},
	{kind: Mention, match: matchMention},
	{kind: Hashtag, match: matchHashtag},
}

// Tokenize splits body into text and link tokens by running every pass.
// Concatenating the Value of all tokens yields body again.
func Tokenize(body string) []Token {
	tokens := []Token{{Kind: Text, Value: body}}
	for _, p := range passes {
		tokens = p.apply(tokens)
	}
	return tokens
}

// Render converts body into HTML. A body without any URL, mention or hashtag
// is returned unchanged.
//
// Render is not idempotent: feeding its output back in re-links the visible
// text of the anchors it produced. Call it once per raw body.
func Render(body string) string {
	return join(Tokenize(body))
}

// LinkURLs runs only the URL pass over s.
func LinkURLs(s string) string {
	return join(passes[0].apply([]Token{{Kind: Text, Value: s}}))
}

// LinkMentions runs only the mention pass over s.
func LinkMentions(s string) string {
	return join(passes[1].apply([]Token{{Kind: Text, Value: s}}))
}

// LinkHashtags runs only the hashtag pass over s.
func LinkHashtags(s string) string {
	return join(passes[2].apply([]Token{{Kind: Text, Value: s}}))
}

// Hashtags returns the tags Render would link in body, without the leading
// '#', in order of appearance. Duplicates are kept.
func Hashtags(body string) []string {
	return values(body, Hashtag)
}

// Mentions returns the handles Render would link in body, without the
// leading '@', in order of appearance. Duplicates are kept.
func Mentions(body string) []string {
	return values(body, Mention)
}

func values(body string, kind Kind) []string {
	var out []string
	for _, t := range Tokenize(body) {
		if t.Kind == kind {
			out = append(out, t.Value[1:])
		}
	}
	return out
}

// apply returns a new token list in which every match inside a Text token is
// split out as its own token. Tokens claimed by earlier passes are copied
// through untouched.
func (p pass) apply(in []Token) []Token {
	out := make([]Token, 0, len(in))
	var prev byte
	for _, t := range in {
		if t.Kind != Text {
			out = append(out, t)
			prev = lastByte(t.Value)
			continue
		}

		s := t.Value
		start := 0
		for i := 0; i < len(s); {
			before := prev
			if i > 0 {
				before = s[i-1]
			}
			end, ok := p.match(s, i, before)
			if !ok {
				i++
				continue
			}
			if i > start {
				out = append(out, Token{Kind: Text, Value: s[start:i]})
			}
			out = append(out, Token{Kind: p.kind, Value: s[i:end]})
			i, start = end, end
		}
		if start < len(s) {
			out = append(out, Token{Kind: Text, Value: s[start:]})
		}
		prev = lastByte(s)
	}
	return out
}

func join(tokens []Token) string {
	if len(tokens) == 1 {
		return tokens[0].HTML()
	}
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.HTML())
	}
	return b.String()
}

func lastByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeText escapes the characters that are significant in HTML text and
// double-quoted attributes. Unlike html.EscapeString it never emits numeric
// entities, so escaping cannot introduce a '#' that the hashtag pass would
// pick up.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}
