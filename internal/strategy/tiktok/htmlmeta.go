package tiktok

import (
	"bytes"
	"context"
	"net/url"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// og:description count summaries, e.g. "1.2M Followers, 10 Following, ...".
// Older pages say "Fans" instead of "Followers" and omit Following.
var (
	ogFollowersRe = regexp.MustCompile(`(?i)([\d.,]+\s?[KMB]?)\s+(?:Followers?|Fans)`)
	ogFollowingRe = regexp.MustCompile(`(?i)([\d.,]+\s?[KMB]?)\s+Following`)
)

// HTMLMeta is the leanest fallback: OpenGraph tags plus whatever blob
// fragments survive in the raw markup.
type HTMLMeta struct {
	cfg Config
}

func (s *HTMLMeta) Name() string { return "html_meta" }

func (s *HTMLMeta) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: profileURL(url.PathEscape(q.Handle)),
	})
	if err != nil {
		return nil, strategy.Fail(strategy.NetworkFailure, err)
	}
	if err := strategy.CheckResponse(resp); err != nil {
		return nil, err
	}

	res := &model.PartialProfileResult{}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body)); err == nil {
		if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			parseOGDescription(textnorm.DecodeEntities(desc), res)
		}
	}

	raw := string(resp.Body)
	// Blob fragments are more precise than the meta summary; let them win.
	scanProfileFields(raw, res)
	res.Posts = scanPosts(raw, q.Handle, q.PostLimit, s.cfg)

	return res, nil
}

func parseOGDescription(desc string, res *model.PartialProfileResult) {
	if m := ogFollowersRe.FindStringSubmatch(desc); m != nil {
		if n, ok := textnorm.ParseCount(m[1]); ok {
			res.Followers = &n
		}
	}
	if m := ogFollowingRe.FindStringSubmatch(desc); m != nil {
		if n, ok := textnorm.ParseCount(m[1]); ok {
			res.Following = &n
		}
	}
}
