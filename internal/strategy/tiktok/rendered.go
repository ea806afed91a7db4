package tiktok

import (
	"context"
	"net/url"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
)

// Rendered drives a real browser against the profile page and runs the
// blob-fragment scanners over the hydrated DOM.
type Rendered struct {
	cfg Config
}

func (s *Rendered) Name() string { return "rendered_page" }

func (s *Rendered) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	doc, err := s.cfg.Renderer.Render(ctx, profileURL(url.PathEscape(q.Handle)))
	if err != nil {
		return nil, strategy.Fail(strategy.NetworkFailure, err)
	}
	if err := strategy.CheckResponse(&netaccess.Response{StatusCode: 200, Body: []byte(doc)}); err != nil {
		return nil, err
	}

	res := &model.PartialProfileResult{}
	scanProfileFields(doc, res)
	res.Posts = scanPosts(doc, q.Handle, q.PostLimit, s.cfg)

	return res, nil
}
