package markup

import "testing"

func TestIsWordChar(t *testing.T) {
	for _, b := range []byte("azAZ09_") {
		if !isWordChar(b) {
			t.Errorf("isWordChar(%q) = false, want true", b)
		}
	}
	for _, b := range []byte("#@.-()/ \t\xc3\xa9") {
		if isWordChar(b) {
			t.Errorf("isWordChar(%q) = true, want false", b)
		}
	}
}

func TestMatchHashtag_RespectsPrecedingByte(t *testing.T) {
	testCases := []struct {
		name   string
		s      string
		i      int
		before byte
		end    int
		ok     bool
	}{
		{name: "start of text", s: "#tag", i: 0, before: 0, end: 4, ok: true},
		{name: "after space", s: "a #tag", i: 2, before: ' ', end: 6, ok: true},
		{name: "after word char", s: "a#tag", i: 1, before: 'a', ok: false},
		{name: "hash then hash", s: "##tag", i: 0, before: 0, ok: false},
		{name: "second hash", s: "##tag", i: 1, before: '#', end: 5, ok: true},
		{name: "hash at end", s: "a #", i: 2, before: ' ', ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			end, ok := matchHashtag(tc.s, tc.i, tc.before)

			if ok != tc.ok || (ok && end != tc.end) {
				t.Errorf("matchHashtag(%q, %d) = (%d, %v), want (%d, %v)", tc.s, tc.i, end, ok, tc.end, tc.ok)
			}
		})
	}
}

func TestMatchURL_RequiresSchemeAndBody(t *testing.T) {
	testCases := []struct {
		s   string
		end int
		ok  bool
	}{
		{s: "http://a", end: 8, ok: true},
		{s: "https://a b", end: 9, ok: true},
		{s: "http:// a", ok: false},
		{s: "ftp://a", ok: false},
		{s: "https:/a", ok: false},
	}

	for _, tc := range testCases {
		end, ok := matchURL(tc.s, 0, 0)
		if ok != tc.ok || (ok && end != tc.end) {
			t.Errorf("matchURL(%q) = (%d, %v), want (%d, %v)", tc.s, end, ok, tc.end, tc.ok)
		}
	}
}
