// Package extract implements anchor-windowed pattern extraction over raw
// document text. Rather than parsing frequently changing, partially
// obfuscated markup into a strict tree, it scans for record-identifying
// anchors and pulls correlated sibling fields from a bounded window around
// each one, keeping per-record cost fixed and preventing cross-record bleed.
package extract

import (
	"iter"
	"regexp"
)

// Window bounds how far around an anchor secondary fields are searched,
// in bytes of lookbehind and lookahead.
type Window struct {
	Before int
	After  int
}

// DefaultWindow is an empirically tuned starting point; callers normally
// take the values from configuration.
var DefaultWindow = Window{Before: 500, After: 2000}

// Anchor is one occurrence of a record-identifying pattern plus the bounded
// slice of the document around it.
type Anchor struct {
	// Value is the anchor's identifying text: the first capture group when
	// the pattern has one, otherwise the whole match.
	Value string
	// Start and End are the match offsets within the original document.
	Start, End int
	// Window is the bounded surrounding text secondary patterns may search.
	Window string
	// AnchorPos is the anchor's offset within Window.
	AnchorPos int
}

// Find searches a secondary pattern inside the window only. The lookahead
// side is preferred; the lookbehind side is consulted only when the pattern
// is absent after the anchor, so a neighboring record's trailing fields
// cannot shadow this record's own.
func (a Anchor) Find(re *regexp.Regexp) (string, bool) {
	if v, ok := First(re, a.Window[a.AnchorPos:]); ok {
		return v, ok
	}
	return First(re, a.Window[:a.AnchorPos])
}

// Anchors returns a lazy, finite, restartable sequence of anchors found in
// doc. Occurrences are deduplicated by value and iteration stops once limit
// distinct values have been produced (limit <= 0 means no limit) or input is
// exhausted. Each call to the returned sequence rescans from the start.
func Anchors(doc string, pattern *regexp.Regexp, w Window, limit int) iter.Seq[Anchor] {
	return func(yield func(Anchor) bool) {
		seen := make(map[string]struct{})
		offset := 0
		for offset < len(doc) {
			loc := pattern.FindStringSubmatchIndex(doc[offset:])
			if loc == nil {
				return
			}
			start, end := offset+loc[0], offset+loc[1]
			value := doc[start:end]
			if len(loc) >= 4 && loc[2] >= 0 {
				value = doc[offset+loc[2] : offset+loc[3]]
			}
			offset = end

			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}

			wStart := start - w.Before
			if wStart < 0 {
				wStart = 0
			}
			wEnd := end + w.After
			if wEnd > len(doc) {
				wEnd = len(doc)
			}

			if !yield(Anchor{Value: value, Start: start, End: end, Window: doc[wStart:wEnd], AnchorPos: start - wStart}) {
				return
			}
			if limit > 0 && len(seen) >= limit {
				return
			}
		}
	}
}

// First returns the first capture group of the first match of re within s,
// or the whole match when the pattern has no groups.
func First(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	switch {
	case m == nil:
		return "", false
	case len(m) > 1:
		return m[1], true
	default:
		return m[0], true
	}
}
