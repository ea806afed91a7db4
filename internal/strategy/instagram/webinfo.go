package instagram

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/extract"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

const (
	homeURL    = "https://www.instagram.com/"
	webInfoURL = "https://i.instagram.com/api/v1/users/web_profile_info/?username="

	// App id the web client sends; the endpoint rejects requests without it.
	webAppID = "936619743392459"
)

// WebInfo queries the anonymous web_profile_info JSON endpoint. It performs
// a preliminary bootstrap fetch of the home page to pick up an anonymous
// csrf token; bootstrap failure degrades the request to unauthenticated
// headers rather than aborting the strategy.
type WebInfo struct {
	cfg Config
}

func (s *WebInfo) Name() string { return "web_profile_info" }

func (s *WebInfo) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	header := http.Header{}
	header.Set("X-IG-App-ID", webAppID)
	header.Set("Accept", "*/*")

	if token, ok := s.bootstrap(ctx, q); ok {
		header.Set("X-CSRFToken", token)
	}

	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL:    webInfoURL + url.QueryEscape(q.Handle),
		Header: header,
	})
	if err != nil {
		return nil, strategy.Fail(strategy.NetworkFailure, err)
	}
	if err := strategy.CheckResponse(resp); err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, strategy.Failf(strategy.MalformedPayload, "web_profile_info: response is not json")
	}
	user := gjson.GetBytes(resp.Body, "data.user")
	if !user.Exists() {
		return nil, strategy.Failf(strategy.NoFieldsFound, "web_profile_info: no user object for %q", q.Handle)
	}

	res := &model.PartialProfileResult{}
	setCount(&res.Followers, user.Get("edge_followed_by.count"))
	setCount(&res.Following, user.Get("edge_follow.count"))
	setCount(&res.PostsCount, user.Get("edge_owner_to_timeline_media.count"))
	if bio := textnorm.Truncate(textnorm.Normalize(user.Get("biography").String()), 300); bio != "" {
		res.Bio = &bio
	}

	now := s.cfg.Now()
	user.Get("edge_owner_to_timeline_media.edges").ForEach(func(_, edge gjson.Result) bool {
		node := edge.Get("node")
		shortcode := node.Get("shortcode").String()
		if shortcode == "" {
			return true
		}
		rec := model.PostRecord{
			ID:  shortcode,
			URL: postURL(shortcode),
		}
		setCount(&rec.Likes, node.Get("edge_liked_by.count"), node.Get("edge_media_preview_like.count"))
		setCount(&rec.Comments, node.Get("edge_media_to_comment.count"))
		if ts := node.Get("taken_at_timestamp"); ts.Exists() && ts.Int() > 0 {
			t, _ := extract.ParseTimestamp(ts.Raw)
			rec.PostedAt = &t
			rec.DateUnreliable = !extract.Recent(t, now, s.cfg.Horizon)
		}
		if node.Get("is_video").Bool() {
			rec.MediaType = model.MediaVideo
		} else {
			rec.MediaType = model.MediaImage
		}
		caption := node.Get("edge_media_to_caption.edges.0.node.text").String()
		rec.CaptionSnippet = textnorm.Truncate(textnorm.Normalize(caption), extract.CaptionSnippetRunes)

		res.Posts = append(res.Posts, rec)
		return len(res.Posts) < q.PostLimit || q.PostLimit <= 0
	})
	res.Posts = extract.RankPosts(extract.DedupePosts(res.Posts, q.PostLimit))

	return res, nil
}

// bootstrap fetches the anonymous home page for a csrf token.
func (s *WebInfo) bootstrap(ctx context.Context, q strategy.Query) (string, bool) {
	resp, err := q.Net.Do(ctx, netaccess.Request{URL: homeURL})
	if err != nil {
		zap.L().Debug("instagram: bootstrap fetch failed, continuing unauthenticated",
			zap.String("handle", q.Handle),
			zap.Error(err),
		)
		return "", false
	}
	token, ok := resp.Cookie("csrftoken")
	return token, ok && token != ""
}

// setCount stores the first existing numeric result into dst.
func setCount(dst **int64, candidates ...gjson.Result) {
	for _, c := range candidates {
		if c.Exists() {
			n := c.Int()
			*dst = &n
			return
		}
	}
}
