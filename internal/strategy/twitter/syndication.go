package twitter

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/extract"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

const (
	timelineURL     = "https://syndication.twitter.com/srv/timeline-profile/screen-name/"
	followButtonURL = "https://cdn.syndication.twimg.com/widgets/followbutton/info.json?screen_names="
)

// Syndication reads the embedded-timeline widget backend, which serves an
// anonymous server-rendered page with the user's recent tweets in a
// __NEXT_DATA__ blob. A secondary fetch of the follow-button widget data
// supplies the follower count; its failure degrades the result to posts
// only rather than aborting the strategy.
type Syndication struct {
	cfg Config
}

func (s *Syndication) Name() string { return "syndication" }

func (s *Syndication) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: timelineURL + url.PathEscape(q.Handle),
	})
	if err != nil {
		return nil, strategy.Fail(strategy.NetworkFailure, err)
	}
	if err := strategy.CheckResponse(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, strategy.Fail(strategy.MalformedPayload, err)
	}
	blob := doc.Find(`script#__NEXT_DATA__`).Text()
	if blob == "" || !gjson.Valid(blob) {
		return nil, strategy.Failf(strategy.MalformedPayload, "syndication: no timeline state for %q", q.Handle)
	}

	res := &model.PartialProfileResult{}
	now := s.cfg.Now()
	gjson.Get(blob, "props.pageProps.timeline.entries").ForEach(func(_, entry gjson.Result) bool {
		tweet := entry.Get("content.tweet")
		if !tweet.Exists() {
			return true
		}
		id := tweet.Get("id_str").String()
		if id == "" {
			return true
		}
		rec := model.PostRecord{
			ID:  id,
			URL: statusURL(q.Handle, id),
		}
		setCount(&rec.Likes, tweet.Get("favorite_count"))
		setCount(&rec.Comments, tweet.Get("reply_count"), tweet.Get("conversation_count"))
		if ts, ok := extract.ParseTimestamp(tweet.Get("created_at").String()); ok {
			rec.PostedAt = &ts
			rec.DateUnreliable = !extract.Recent(ts, now, s.cfg.Horizon)
		}
		text := tweet.Get("full_text").String()
		if text == "" {
			text = tweet.Get("text").String()
		}
		rec.CaptionSnippet = textnorm.Truncate(textnorm.Normalize(text), extract.CaptionSnippetRunes)
		if tweet.Get("extended_entities.media.0.type").String() == "video" {
			rec.MediaType = model.MediaVideo
		} else if tweet.Get("entities.media.0.type").String() == "photo" {
			rec.MediaType = model.MediaImage
		}

		res.Posts = append(res.Posts, rec)
		return len(res.Posts) < q.PostLimit || q.PostLimit <= 0
	})
	res.Posts = extract.RankPosts(extract.DedupePosts(res.Posts, q.PostLimit))

	s.enrichCounts(ctx, q, res)

	if !res.Usable() {
		return nil, strategy.Failf(strategy.NoFieldsFound, "syndication: no recognizable fields for %q", q.Handle)
	}
	return res, nil
}

// enrichCounts asks the follow-button widget data for scalar counts.
func (s *Syndication) enrichCounts(ctx context.Context, q strategy.Query, res *model.PartialProfileResult) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: followButtonURL + url.QueryEscape(q.Handle),
	})
	if err != nil || resp.StatusCode != 200 {
		zap.L().Debug("twitter: follow button fetch failed, posts only",
			zap.String("handle", q.Handle),
			zap.Error(err),
		)
		return
	}
	if !gjson.ValidBytes(resp.Body) {
		return
	}
	info := gjson.GetBytes(resp.Body, "0")
	if !info.Exists() {
		return
	}
	setCount(&res.Followers, info.Get("followers_count"))
	setCount(&res.Following, info.Get("friends_count"))
	setCount(&res.PostsCount, info.Get("statuses_count"))
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
