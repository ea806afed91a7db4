package textnorm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEntities(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"&lt;b&gt;bold&lt;/b&gt;", "<b>bold</b>"},
		{"caf&#233;", "caf\u00e9"},
		{"caf&#xe9;", "caf\u00e9"},
		{"10\u00a0000 followers", "10 000 followers"},
		{"zero\u200bwidth", "zerowidth"},
		{"\ufeffbom stripped", "bom stripped"},
		{"&quot;quoted&quot;", `"quoted"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecodeEntities(tt.in), tt.in)
	}
}

func TestDecodeEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`no escapes`, "no escapes"},
		{`line\none`, "line\none"},
		{`tab\there`, "tab\there"},
		{`quote \" slash \/`, `quote " slash /`},
		{`back\\slash`, `back\slash`},
		{`\u00e9t\u00e9`, "\u00e9t\u00e9"},
		{`caf\u00E9`, "caf\u00e9"},
		{`fire \ud83d\udd25 sale`, "fire \U0001f525 sale"},
		{`pair then text \ud83d\ude00!`, "pair then text \U0001f600!"},
		{`lone high \ud83d stays`, "lone high \ufffd stays"},
		{`bad \uZZZZ stays`, `bad \uZZZZ stays`},
		{`trailing backslash \`, `trailing backslash \`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecodeEscapes(tt.in), tt.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"  spaced\t\nout  text ",
		"Tom &amp; Jerry",
		"caf\u00e9   bar",
		"already normalized",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 10))
	assert.Equal(t, "", Truncate("abcdef", 0))
	// Multi-byte runes are never split.
	assert.Equal(t, "caf\u00e9", Truncate("caf\u00e9 au lait", 4))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"1,234", 1234, true},
		{"1.234", 1234, true},
		{"1,234,567", 1234567, true},
		{"1.5", 2, true}, // rounds
		{"1.5K", 1500, true},
		{"1,5K", 1500, true},
		{"3.4k", 3400, true},
		{"12M", 12000000, true},
		{"12 M", 12000000, true},
		{"2.05m", 2050000, true},
		{"1B", 1000000000, true},
		{"1,234.5", 1235, true},
		{"10 000", 0, false}, // embedded space is not a separator we accept
		{"", 0, false},
		{"followers", 0, false},
		{"K", 0, false},
		{",5", 0, false},
		{"1,2x3", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCount(tt.in)
		assert.Equal(t, tt.ok, ok, "ok for %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "value for %q", tt.in)
		}
	}
}

func TestParseCount_RoundTrip(t *testing.T) {
	// Generated (value, format) pairs must recover the intended integer
	// within rounding tolerance of the printed precision.
	type format struct {
		render    func(int64) string
		tolerance func(int64) int64
	}
	formats := []format{
		{func(v int64) string { return fmt.Sprintf("%d", v) }, func(int64) int64 { return 0 }},
		{func(v int64) string { return groupThousands(v, ",") }, func(int64) int64 { return 0 }},
		{func(v int64) string { return groupThousands(v, ".") }, func(int64) int64 { return 0 }},
		{func(v int64) string { return fmt.Sprintf("%.1fK", float64(v)/1e3) }, func(int64) int64 { return 50 }},
		{func(v int64) string { return fmt.Sprintf("%.1fM", float64(v)/1e6) }, func(int64) int64 { return 50000 }},
	}
	values := []int64{1, 999, 1000, 1234, 56789, 123456, 9876543, 150000000}
	for fi, f := range formats {
		for _, v := range values {
			rendered := f.render(v)
			got, ok := ParseCount(rendered)
			require.True(t, ok, "format %d rendered %q", fi, rendered)
			tol := f.tolerance(v)
			assert.InDelta(t, v, got, float64(tol), "format %d rendered %q", fi, rendered)
		}
	}
}

func groupThousands(v int64, sep string) string {
	s := fmt.Sprintf("%d", v)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, sep...)
		}
		out = append(out, c)
	}
	return string(out)
}
