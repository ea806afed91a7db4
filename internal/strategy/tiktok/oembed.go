package tiktok

import (
	"context"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

const oembedURL = "https://www.tiktok.com/oembed?url="

// OEmbed queries the official oembed endpoint for the profile URL. It is
// rarely blocked but thin: the response carries the account's title line
// and nothing countable, so a success here is at best a partial result.
type OEmbed struct {
	cfg Config
}

func (s *OEmbed) Name() string { return "oembed" }

func (s *OEmbed) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: oembedURL + url.QueryEscape(profileURL(q.Handle)),
	})
	if err != nil {
		return nil, strategy.Fail(strategy.NetworkFailure, err)
	}
	if err := strategy.CheckResponse(resp); err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, strategy.Failf(strategy.MalformedPayload, "oembed: response is not json")
	}

	res := &model.PartialProfileResult{}
	title := gjson.GetBytes(resp.Body, "title").String()
	if title == "" {
		title = gjson.GetBytes(resp.Body, "author_name").String()
	}
	fillBio(res, textnorm.DecodeEntities(title))

	if !res.Usable() {
		return nil, strategy.Failf(strategy.NoFieldsFound, "oembed: no recognizable fields for %q", q.Handle)
	}
	return res, nil
}
