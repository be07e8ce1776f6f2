// Package slug derives page slugs from titles.
package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds slug length so page filenames stay short.
const MaxLen = 60

// Make converts a title into a slug: NFD-normalized with combining marks
// stripped, lowercased, whitespace and dashes collapsed to single dashes,
// everything else that is not a letter or digit dropped. Slugs longer than
// MaxLen are cut at the last dash that fits.
func Make(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFD.String(title) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-' || r == '_':
			dash = true
		}
	}
	return truncate(b.String())
}

func truncate(s string) string {
	if len(s) <= MaxLen {
		return s
	}
	end := 0
	for i, r := range s {
		n := utf8.RuneLen(r)
		if i+n > MaxLen {
			break
		}
		end = i + n
	}
	if s[end] == '-' {
		return s[:end]
	}
	cut := s[:end]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		return cut[:i]
	}
	return cut
}
