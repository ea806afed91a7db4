package instagram

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

// ogDescriptionRe matches the localized count summary in og:description,
// e.g. "1,234 Followers, 56 Following, 789 Posts - ...". The counts may be
// abbreviated ("1.5M Followers") depending on magnitude and locale.
var ogDescriptionRe = regexp.MustCompile(`(?i)([\d.,]+\s?[KMB]?)\s+Followers?,\s*([\d.,]+\s?[KMB]?)\s+Following,\s*([\d.,]+\s?[KMB]?)\s+Posts`)

// HTMLMeta is the leanest fallback: the profile page itself, read for
// OpenGraph meta tags and whatever state blob survives in the markup.
type HTMLMeta struct {
	cfg Config
}

func (s *HTMLMeta) Name() string { return "html_meta" }

func (s *HTMLMeta) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: "https://www.instagram.com/" + url.PathEscape(q.Handle) + "/",
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
	// The state blob is more precise than the meta tags; let it win.
	scanProfileFields(raw, res)
	res.Posts = scanPosts(raw, q.PostLimit, s.cfg)

	return res, nil
}

// parseOGDescription fills counts from the og:description summary line.
func parseOGDescription(desc string, res *model.PartialProfileResult) {
	m := ogDescriptionRe.FindStringSubmatch(desc)
	if m == nil {
		return
	}
	if n, ok := textnorm.ParseCount(m[1]); ok {
		res.Followers = &n
	}
	if n, ok := textnorm.ParseCount(m[2]); ok {
		res.Following = &n
	}
	if n, ok := textnorm.ParseCount(m[3]); ok {
		res.PostsCount = &n
	}
}
