// Package instagram implements the Instagram strategy cascade: the
// anonymous web-profile JSON API first, then the public embed page, then
// the profile HTML with meta tags and embedded state blobs. Ordering
// encodes the cost/richness tradeoff; the JSON API is both cheapest and
// richest when it answers.
package instagram

import (
	"regexp"
	"time"

	"github.com/sells-group/social-intel/internal/extract"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// Config carries the tunables shared by the platform's strategies. Window
// sizes and the staleness horizon are empirically tuned heuristics, so they
// come from configuration rather than being baked in.
type Config struct {
	Window  extract.Window
	Horizon time.Duration
	Now     func() time.Time

	// Renderer enables the last-resort rendered-page strategy when set.
	Renderer strategy.PageRenderer
}

func (c Config) withDefaults() Config {
	if c.Window.Before == 0 && c.Window.After == 0 {
		c.Window = extract.DefaultWindow
	}
	if c.Horizon <= 0 {
		c.Horizon = 365 * 24 * time.Hour
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Cascade returns the platform's strategies in priority order.
func Cascade(cfg Config) []strategy.Strategy {
	cfg = cfg.withDefaults()
	ss := []strategy.Strategy{
		&WebInfo{cfg: cfg},
		&Embed{cfg: cfg},
		&HTMLMeta{cfg: cfg},
	}
	if cfg.Renderer != nil {
		ss = append(ss, &Rendered{cfg: cfg})
	}
	return ss
}

func postURL(shortcode string) string {
	return "https://www.instagram.com/p/" + shortcode + "/"
}

// Patterns anchored on the payload shapes Instagram embeds in markup. The
// same shapes appear in the embed page and the profile HTML state blob, so
// both fallback strategies share one scanner.
var (
	shortcodeRe = regexp.MustCompile(`"shortcode":"([A-Za-z0-9_-]+)"`)
	likesRe     = regexp.MustCompile(`"(?:edge_liked_by|edge_media_preview_like)":\{"count":(\d+)`)
	commentsRe  = regexp.MustCompile(`"edge_media_to_comment":\{"count":(\d+)`)
	timestampRe = regexp.MustCompile(`"taken_at_timestamp":(\d+)`)
	videoRe     = regexp.MustCompile(`"is_video":true`)
	captionRe   = regexp.MustCompile(`"text":"((?:[^"\\]|\\.)*)"`)

	// Secondary anchor for documents that expose captions but no shortcodes.
	captionAnchorRe = regexp.MustCompile(`"text":"((?:[^"\\]|\\.){8,}?)"`)

	followersRe  = regexp.MustCompile(`"edge_followed_by":\{"count":(\d+)`)
	followingRe  = regexp.MustCompile(`"edge_follow":\{"count":(\d+)`)
	postsCountRe = regexp.MustCompile(`"edge_owner_to_timeline_media":\{"count":(\d+)`)
	biographyRe  = regexp.MustCompile(`"biography":"((?:[^"\\]|\\.)*)"`)
)

var postPatterns = extract.FieldPatterns{
	Likes:     likesRe,
	Comments:  commentsRe,
	Timestamp: timestampRe,
	Caption:   captionRe,
	Video:     videoRe,
}

// scanProfileFields pulls scalar profile fields out of raw markup.
func scanProfileFields(doc string, res *model.PartialProfileResult) {
	if raw, ok := extract.First(followersRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.Followers = &n
		}
	}
	if raw, ok := extract.First(followingRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.Following = &n
		}
	}
	if raw, ok := extract.First(postsCountRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.PostsCount = &n
		}
	}
	if raw, ok := extract.First(biographyRe, doc); ok {
		bio := textnorm.Truncate(textnorm.Normalize(textnorm.DecodeEscapes(raw)), 300)
		if bio != "" {
			res.Bio = &bio
		}
	}
}

// scanPosts recovers posts from raw markup. The unique shortcode anchor is
// primary; when a document exposes captions without shortcodes, the caption
// anchor method fills in. Records from both methods are deduplicated and
// ranked newest-first.
func scanPosts(doc string, limit int, cfg Config) []model.PostRecord {
	now := cfg.Now()

	var posts []model.PostRecord
	for a := range extract.Anchors(doc, shortcodeRe, cfg.Window, limit) {
		posts = append(posts, postPatterns.Apply(a, postURL, now, cfg.Horizon))
	}

	if len(posts) == 0 {
		for a := range extract.Anchors(doc, captionAnchorRe, cfg.Window, limit) {
			caption := textnorm.Normalize(textnorm.DecodeEscapes(a.Value))
			rec := model.PostRecord{
				CaptionSnippet: textnorm.Truncate(caption, extract.CaptionSnippetRunes),
			}
			if raw, ok := a.Find(timestampRe); ok {
				if ts, ok := extract.ParseTimestamp(raw); ok {
					rec.PostedAt = &ts
					rec.DateUnreliable = !extract.Recent(ts, now, cfg.Horizon)
				}
			}
			posts = append(posts, rec)
		}
	}

	return extract.RankPosts(extract.DedupePosts(posts, limit))
}
