// Package twitter implements the Twitter/X strategy cascade: the public
// syndication endpoints first (JSON, anonymous, CDN-served), then the
// profile page meta tags. The syndication timeline is the only anonymous
// source that still returns structured tweets.
package twitter

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
		&Syndication{cfg: cfg},
		&HTMLMeta{cfg: cfg},
	}
	if cfg.Renderer != nil {
		ss = append(ss, &Rendered{cfg: cfg})
	}
	return ss
}

func statusURL(handle, id string) string {
	return "https://twitter.com/" + handle + "/status/" + id
}

// Patterns over legacy user/tweet JSON fragments that survive in profile
// markup. Status-link hrefs anchor post records; the engagement patterns
// cover whatever state blob fragments sit near them.
var (
	statusLinkRe = regexp.MustCompile(`/status/(\d{8,})`)

	favoriteRe = regexp.MustCompile(`"favorite_count":\s?(\d+)`)
	replyRe    = regexp.MustCompile(`"reply_count":\s?(\d+)`)
	createdRe  = regexp.MustCompile(`"created_at":\s?"([^"]+)"`)
	fullTextRe = regexp.MustCompile(`"(?:full_)?text":\s?"((?:[^"\\]|\\.)*)"`)
	tweetVidRe = regexp.MustCompile(`"type":\s?"video"`)

	followersCntRe = regexp.MustCompile(`"followers_count":\s?(\d+)`)
	friendsCntRe   = regexp.MustCompile(`"friends_count":\s?(\d+)`)
	statusesCntRe  = regexp.MustCompile(`"statuses_count":\s?(\d+)`)
	descriptionRe  = regexp.MustCompile(`"description":\s?"((?:[^"\\]|\\.)*)"`)
)

var postPatterns = extract.FieldPatterns{
	Likes:     favoriteRe,
	Comments:  replyRe,
	Timestamp: createdRe,
	Caption:   fullTextRe,
	Video:     tweetVidRe,
}

func scanProfileFields(doc string, res *model.PartialProfileResult) {
	if raw, ok := extract.First(followersCntRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.Followers = &n
		}
	}
	if raw, ok := extract.First(friendsCntRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.Following = &n
		}
	}
	if raw, ok := extract.First(statusesCntRe, doc); ok {
		if n, ok := textnorm.ParseCount(raw); ok {
			res.PostsCount = &n
		}
	}
	if raw, ok := extract.First(descriptionRe, doc); ok {
		bio := textnorm.Truncate(textnorm.Normalize(textnorm.DecodeEscapes(raw)), 300)
		if bio != "" {
			res.Bio = &bio
		}
	}
}

func scanPosts(doc, handle string, limit int, cfg Config) []model.PostRecord {
	now := cfg.Now()
	urlFor := func(id string) string {
		return statusURL(handle, id)
	}

	var posts []model.PostRecord
	for a := range extract.Anchors(doc, statusLinkRe, cfg.Window, limit) {
		posts = append(posts, postPatterns.Apply(a, urlFor, now, cfg.Horizon))
	}
	return extract.RankPosts(extract.DedupePosts(posts, limit))
}
