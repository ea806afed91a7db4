package textnorm

import (
	"math"
	"strings"
)

// ParseCount parses a human-formatted count like "12,345", "1.234", "3.4K",
// or "12 M" into an integer. Magnitude suffixes K, M, and B are accepted
// case-insensitively.
//
// Separator disambiguation: a comma or period followed by exactly three
// digits is a thousands separator; anything else is a decimal point. Sources
// localize counts either way ("1.234" meaning 1234 vs "1.5K" meaning 1500),
// so neither symbol can be trusted on its own.
//
// Returns ok=false on unparseable input. Never panics.
func ParseCount(s string) (int64, bool) {
	s = strings.TrimSpace(DecodeEntities(s))
	if s == "" {
		return 0, false
	}

	multiplier := 1.0
	if last := s[len(s)-1]; last == 'k' || last == 'K' {
		multiplier = 1e3
		s = strings.TrimSpace(s[:len(s)-1])
	} else if last == 'm' || last == 'M' {
		multiplier = 1e6
		s = strings.TrimSpace(s[:len(s)-1])
	} else if last == 'b' || last == 'B' {
		multiplier = 1e9
		s = strings.TrimSpace(s[:len(s)-1])
	}
	if s == "" {
		return 0, false
	}

	var intPart strings.Builder
	fracPart := ""
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			intPart.WriteByte(c)
		case c == ',' || c == '.':
			if intPart.Len() == 0 {
				return 0, false
			}
			if isThousandsSep(s, i) {
				continue
			}
			// Decimal point: the rest must be digits.
			fracPart = s[i+1:]
			for j := 0; j < len(fracPart); j++ {
				if fracPart[j] < '0' || fracPart[j] > '9' {
					return 0, false
				}
			}
			i = len(s)
		default:
			return 0, false
		}
		if fracPart != "" {
			break
		}
	}
	if intPart.Len() == 0 {
		return 0, false
	}

	value := 0.0
	for i := 0; i < intPart.Len(); i++ {
		value = value*10 + float64(intPart.String()[i]-'0')
	}
	if fracPart != "" {
		scale := 0.1
		for i := 0; i < len(fracPart); i++ {
			value += float64(fracPart[i]-'0') * scale
			scale /= 10
		}
	}

	return int64(math.Round(value * multiplier)), true
}

// isThousandsSep reports whether the separator at index i is followed by
// exactly three digits (and then another separator or end of string).
func isThousandsSep(s string, i int) bool {
	digits := 0
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		if c >= '0' && c <= '9' {
			digits++
			continue
		}
		if c == ',' || c == '.' {
			break
		}
		return false
	}
	return digits == 3
}
