// Package tiktok implements the TikTok strategy cascade: the hydration
// state blob embedded in the profile page first, then the official oembed
// endpoint, then raw meta tags. The state blob carries exact counts and
// recent videos; the fallbacks recover progressively less.
package tiktok

import (
	"regexp"
	"time"

	"github.com/sells-group/social-intel/internal/extract"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// Config carries the tunables shared by the platform's strategies.
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
		&SSRState{cfg: cfg},
		&OEmbed{cfg: cfg},
		&HTMLMeta{cfg: cfg},
	}
	if cfg.Renderer != nil {
		ss = append(ss, &Rendered{cfg: cfg})
	}
	return ss
}

func profileURL(handle string) string {
	return "https://www.tiktok.com/@" + handle
}

// Patterns anchored on the hydration blob shapes. The same shapes survive
// in raw profile markup even when the script tag itself is mangled, so the
// meta-tag fallback shares these scanners.
var (
	// Item objects open with the id immediately followed by the desc key;
	// the user object carries an equally long id but no desc, so requiring
	// the pair keeps the anchor off the profile's own record.
	itemIDRe = regexp.MustCompile(`"id":\s?"(\d{15,})",\s?"desc"`)

	diggRe       = regexp.MustCompile(`"diggCount":\s?(\d+)`)
	commentRe    = regexp.MustCompile(`"commentCount":\s?(\d+)`)
	createTimeRe = regexp.MustCompile(`"createTime":\s?"?(\d+)"?`)
	descRe       = regexp.MustCompile(`"desc":\s?"((?:[^"\\]|\\.)*)"`)
	durationRe   = regexp.MustCompile(`"duration":\s?\d+`)

	followerRe  = regexp.MustCompile(`"followerCount":\s?(\d+)`)
	followingRe = regexp.MustCompile(`"followingCount":\s?(\d+)`)
	videoCntRe  = regexp.MustCompile(`"videoCount":\s?(\d+)`)
	signatureRe = regexp.MustCompile(`"signature":\s?"((?:[^"\\]|\\.)*)"`)
)

var postPatterns = extract.FieldPatterns{
	Likes:     diggRe,
	Comments:  commentRe,
	Timestamp: createTimeRe,
	Caption:   descRe,
	Video:     durationRe,
}

func scanProfileFields(doc string, res *model.PartialProfileResult) {
	if raw, ok := extract.First(followerRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.Followers = &n
		}
	}
	if raw, ok := extract.First(followingRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.Following = &n
		}
	}
	if raw, ok := extract.First(videoCntRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.PostsCount = &n
		}
	}
	if raw, ok := extract.First(signatureRe, doc); ok {
		bio := textnorm.Truncate(textnorm.Normalize(textnorm.DecodeEscapes(raw)), 300)
		if bio != "" {
			res.Bio = &bio
		}
	}
}

func scanPosts(doc, handle string, limit int, cfg Config) []model.PostRecord {
	now := cfg.Now()
	urlFor := func(id string) string {
		return profileURL(handle) + "/video/" + id
	}

	var posts []model.PostRecord
	for a := range extract.Anchors(doc, itemIDRe, cfg.Window, limit) {
		posts = append(posts, postPatterns.Apply(a, urlFor, now, cfg.Horizon))
	}
	return extract.RankPosts(extract.DedupePosts(posts, limit))
}
