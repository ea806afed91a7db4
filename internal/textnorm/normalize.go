// Package textnorm normalizes text and numeric strings recovered from raw,
// partially obfuscated markup: HTML character references, JSON string
// escapes, and locale-ambiguous count formats.
package textnorm

import (
	"html"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// specialSpaces maps whitespace-like code points that sources use in place
// of a plain space. Zero-width characters are removed outright.
var specialSpaces = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u2002", " ", // en space
	"\u2003", " ", // em space
	"\u2009", " ", // thin space
	"\u200a", " ", // hair space
	"\u202f", " ", // narrow no-break space
	"\u3000", " ", // ideographic space
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // byte order mark
)

const specialSpaceChars = "&\u00a0\u2002\u2003\u2009\u200a\u202f\u3000\u200b\u200c\u200d\ufeff"

// DecodeEntities resolves numeric and named HTML character references and
// special whitespace code points. Decoding already-decoded text is a no-op
// for ordinary content, so the function is safe to apply twice.
func DecodeEntities(s string) string {
	if !strings.ContainsAny(s, specialSpaceChars) {
		return s
	}
	return specialSpaces.Replace(html.UnescapeString(s))
}

// DecodeEscapes resolves backslash escapes as they appear inside JSON string
// literals embedded in markup: control characters, quotes, slashes, and
// 4-hex-digit \uXXXX code points. Surrogate pairs are combined so astral
// code points (emoji) survive. Unrecognized escapes are left untouched.
func DecodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case 't':
			b.WriteByte('\t')
			i++
		case 'r':
			b.WriteByte('\r')
			i++
		case 'b':
			b.WriteByte('\b')
			i++
		case 'f':
			b.WriteByte('\f')
			i++
		case '"', '\'', '/', '\\':
			b.WriteByte(s[i+1])
			i++
		case 'u':
			if i+5 < len(s) {
				if r, ok := parseHex4(s[i+2 : i+6]); ok {
					if utf16.IsSurrogate(r) && i+11 < len(s) && s[i+6] == '\\' && s[i+7] == 'u' {
						if lo, ok := parseHex4(s[i+8 : i+12]); ok {
							if combined := utf16.DecodeRune(r, lo); combined != '\ufffd' {
								b.WriteRune(combined)
								i += 11
								continue
							}
						}
					}
					b.WriteRune(r)
					i += 5
					continue
				}
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func parseHex4(s string) (rune, bool) {
	var r rune
	for i := 0; i < 4; i++ {
		r <<= 4
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			r |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return r, true
}

// Normalize produces a canonical form suitable for dedup keys and display
// snippets: NFC, entities decoded, whitespace collapsed to single spaces.
// Idempotent.
func Normalize(s string) string {
	s = norm.NFC.String(DecodeEntities(s))
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most n runes of s, never splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
