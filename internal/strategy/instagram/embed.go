package instagram

import (
	"context"
	"net/url"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
)

// Embed scrapes the public embed page, which renders a reduced, anonymous
// view of recent posts plus a subset of profile fields inside a state blob.
type Embed struct {
	cfg Config
}

func (s *Embed) Name() string { return "embed" }

func (s *Embed) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: "https://www.instagram.com/" + url.PathEscape(q.Handle) + "/embed/",
	})
	if err != nil {
		return nil, strategy.Fail(strategy.NetworkFailure, err)
	}
	if err := strategy.CheckResponse(resp); err != nil {
		return nil, err
	}

	doc := string(resp.Body)
	res := &model.PartialProfileResult{}
	scanProfileFields(doc, res)
	res.Posts = scanPosts(doc, q.PostLimit, s.cfg)

	return res, nil
}
