package twitter

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// HTMLMeta is the fallback: the profile page's og:description carries the
// bio, and legacy state fragments in the markup carry counts when present.
type HTMLMeta struct {
	cfg Config
}

func (s *HTMLMeta) Name() string { return "html_meta" }

func (s *HTMLMeta) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: "https://twitter.com/" + url.PathEscape(q.Handle),
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
			if bio := textnorm.Truncate(textnorm.Normalize(textnorm.DecodeEntities(desc)), 300); bio != "" {
				res.Bio = &bio
			}
		}
	}

	raw := string(resp.Body)
	// State fragments are more precise than the meta tags; let them win.
	scanProfileFields(raw, res)
	res.Posts = scanPosts(raw, q.Handle, q.PostLimit, s.cfg)

	return res, nil
}
