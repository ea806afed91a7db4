package tiktok

import (
	"bytes"
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/sells-group/social-intel/internal/extract"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/textnorm"
)

// SSRState reads the server-rendered hydration blob out of the profile
// page. Two generations of the blob are in the wild: the current
// __UNIVERSAL_DATA_FOR_REHYDRATION__ script, which carries user stats but
// no items, and the older SIGI_STATE script, which carries both stats and
// an ItemModule of recent videos.
type SSRState struct {
	cfg Config
}

func (s *SSRState) Name() string { return "ssr_state" }

func (s *SSRState) Run(ctx context.Context, q strategy.Query) (*model.PartialProfileResult, error) {
	resp, err := q.Net.Do(ctx, netaccess.Request{
		URL: profileURL(url.PathEscape(q.Handle)),
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

	if blob := doc.Find(`script#__UNIVERSAL_DATA_FOR_REHYDRATION__`).Text(); blob != "" {
		return s.fromUniversal(blob, q)
	}
	if blob := doc.Find(`script#SIGI_STATE`).Text(); blob != "" {
		return s.fromSigi(blob, q)
	}
	return nil, strategy.Failf(strategy.NoFieldsFound, "ssr_state: no hydration blob for %q", q.Handle)
}

func (s *SSRState) fromUniversal(blob string, q strategy.Query) (*model.PartialProfileResult, error) {
	if !gjson.Valid(blob) {
		return nil, strategy.Failf(strategy.MalformedPayload, "ssr_state: hydration blob is not json")
	}
	user := gjson.Get(blob, `__DEFAULT_SCOPE__.webapp\.user-detail.userInfo`)
	if !user.Exists() {
		return nil, strategy.Failf(strategy.NoFieldsFound, "ssr_state: no user detail for %q", q.Handle)
	}

	res := &model.PartialProfileResult{}
	fillStats(res, user.Get("stats"))
	fillBio(res, user.Get("user.signature").String())

	// The user-detail scope carries no items; the raw blob occasionally
	// does, so the anchor scan covers it.
	res.Posts = scanPosts(blob, q.Handle, q.PostLimit, s.cfg)
	return res, nil
}

func (s *SSRState) fromSigi(blob string, q strategy.Query) (*model.PartialProfileResult, error) {
	if !gjson.Valid(blob) {
		return nil, strategy.Failf(strategy.MalformedPayload, "ssr_state: hydration blob is not json")
	}

	res := &model.PartialProfileResult{}
	fillStats(res, gjson.Get(blob, "UserModule.stats."+q.Handle))
	fillBio(res, gjson.Get(blob, "UserModule.users."+q.Handle+".signature").String())

	now := s.cfg.Now()
	gjson.Get(blob, "ItemModule").ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		if id == "" {
			return true
		}
		rec := model.PostRecord{
			ID:        id,
			URL:       profileURL(q.Handle) + "/video/" + id,
			MediaType: model.MediaVideo,
		}
		setCount(&rec.Likes, item.Get("stats.diggCount"))
		setCount(&rec.Comments, item.Get("stats.commentCount"))
		if ts, ok := extract.ParseTimestamp(item.Get("createTime").String()); ok {
			rec.PostedAt = &ts
			rec.DateUnreliable = !extract.Recent(ts, now, s.cfg.Horizon)
		}
		rec.CaptionSnippet = textnorm.Truncate(textnorm.Normalize(item.Get("desc").String()), extract.CaptionSnippetRunes)

		res.Posts = append(res.Posts, rec)
		return len(res.Posts) < q.PostLimit || q.PostLimit <= 0
	})
	res.Posts = extract.RankPosts(extract.DedupePosts(res.Posts, q.PostLimit))

	if !res.Usable() {
		return nil, strategy.Failf(strategy.NoFieldsFound, "ssr_state: no recognizable fields for %q", q.Handle)
	}
	return res, nil
}

func fillStats(res *model.PartialProfileResult, stats gjson.Result) {
	setCount(&res.Followers, stats.Get("followerCount"))
	setCount(&res.Following, stats.Get("followingCount"))
	setCount(&res.PostsCount, stats.Get("videoCount"))
}

func fillBio(res *model.PartialProfileResult, raw string) {
	if bio := textnorm.Truncate(textnorm.Normalize(raw), 300); bio != "" {
		res.Bio = &bio
	}
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
