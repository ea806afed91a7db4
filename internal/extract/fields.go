package extract

import (
	"regexp"
	"strconv"
	"time"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// CaptionSnippetRunes caps caption snippets carried on post records.
const CaptionSnippetRunes = 300

// FieldPatterns is the fixed list of secondary patterns searched inside an
// anchor window, never across the whole document. A nil pattern skips that
// field.
type FieldPatterns struct {
	Likes     *regexp.Regexp
	Comments  *regexp.Regexp
	Timestamp *regexp.Regexp
	Caption   *regexp.Regexp
	Video     *regexp.Regexp
}

// Apply extracts one post record from an anchor's window. The anchor value
// becomes the post ID and urlFor maps it to a canonical post URL. now and
// horizon drive timestamp reliability flagging.
func (fp FieldPatterns) Apply(a Anchor, urlFor func(id string) string, now time.Time, horizon time.Duration) model.PostRecord {
	rec := model.PostRecord{
		ID:  a.Value,
		URL: urlFor(a.Value),
	}

	if fp.Likes != nil {
		if raw, ok := a.Find(fp.Likes); ok {
			if n, ok := textnorm.ParseCount(raw); ok {
				rec.Likes = &n
			}
		}
	}
	if fp.Comments != nil {
		if raw, ok := a.Find(fp.Comments); ok {
			if n, ok := textnorm.ParseCount(raw); ok {
				rec.Comments = &n
			}
		}
	}
	if fp.Timestamp != nil {
		if raw, ok := a.Find(fp.Timestamp); ok {
			if ts, ok := ParseTimestamp(raw); ok {
				rec.PostedAt = &ts
				rec.DateUnreliable = !Recent(ts, now, horizon)
			}
		}
	}
	if fp.Caption != nil {
		if raw, ok := a.Find(fp.Caption); ok {
			caption := textnorm.Normalize(textnorm.DecodeEscapes(raw))
			rec.CaptionSnippet = textnorm.Truncate(caption, CaptionSnippetRunes)
		}
	}
	if fp.Video != nil {
		if _, ok := a.Find(fp.Video); ok {
			rec.MediaType = model.MediaVideo
		} else {
			rec.MediaType = model.MediaImage
		}
	}

	return rec
}

// ParseTimestamp accepts unix seconds (and millisecond epochs, detected by
// magnitude), ISO-8601 date strings, and the legacy created_at format some
// timeline payloads still carry ("Wed Oct 10 20:19:24 +0000 2018").
func ParseTimestamp(raw string) (time.Time, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n <= 0 {
			return time.Time{}, false
		}
		const msEpochFloor = int64(1e12)
		if n >= msEpochFloor {
			n /= 1000
		}
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", time.RubyDate} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Recent reports whether ts falls inside the trusted recency horizon:
// not in the future and no older than horizon before now. Timestamps
// outside the horizon are kept but flagged unreliable for most-recent
// ordering.
func Recent(ts, now time.Time, horizon time.Duration) bool {
	if ts.After(now) {
		return false
	}
	return now.Sub(ts) <= horizon
}
