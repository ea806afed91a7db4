package tiktok

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/strategy"
)

// fakeProvider serves canned responses keyed by URL prefix.
type fakeProvider struct {
	responses map[string]*netaccess.Response
	errs      map[string]error
	calls     []string
}

func (f *fakeProvider) Do(_ context.Context, req netaccess.Request) (*netaccess.Response, error) {
	f.calls = append(f.calls, req.URL)
	for prefix, err := range f.errs {
		if strings.HasPrefix(req.URL, prefix) {
			return nil, err
		}
	}
	for prefix, resp := range f.responses {
		if strings.HasPrefix(req.URL, prefix) {
			return resp, nil
		}
	}
	return &netaccess.Response{StatusCode: http.StatusNotFound, Header: http.Header{}}, nil
}

func (f *fakeProvider) Rotate()                      {}
func (f *fakeProvider) Identity() netaccess.Identity { return netaccess.Identity{} }

func htmlResp(body string) *netaccess.Response {
	return &netaccess.Response{StatusCode: 200, Header: http.Header{}, Body: []byte(body)}
}

func testConfig() Config {
	return Config{
		Now: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	}.withDefaults()
}

func query(net netaccess.Provider) strategy.Query {
	return strategy.Query{
		Platform:  model.PlatformTikTok,
		Handle:    "brandco",
		PostLimit: 10,
		Net:       net,
	}
}

const universalFixture = `<html><head></head><body>
<script id="__UNIVERSAL_DATA_FOR_REHYDRATION__" type="application/json">{"__DEFAULT_SCOPE__":{"webapp.user-detail":{"userInfo":{"user":{"id":"6745191554350760198","uniqueId":"brandco","signature":"Dream big &amp; ship."},"stats":{"followerCount":250000,"followingCount":12,"heartCount":3400000,"videoCount":140}}}}}</script>
</body></html>`

const sigiFixture = `<html><head></head><body>
<script id="SIGI_STATE" type="application/json">{"UserModule":{"users":{"brandco":{"id":"6745191554350760198","signature":"B2B coffee gear"}},"stats":{"brandco":{"followerCount":98000,"followingCount":45,"videoCount":210}}},"ItemModule":{"7100000000000000001":{"id":"7100000000000000001","desc":"April drop","createTime":"1713571200","stats":{"diggCount":900,"commentCount":33}},"7100000000000000002":{"id":"7100000000000000002","desc":"May launch","createTime":"1714521600","stats":{"diggCount":2400,"commentCount":120}},"7100000000000000003":{"id":"7100000000000000003","desc":"Mid April","createTime":"1713139200","stats":{"diggCount":150,"commentCount":4}}}}</script>
</body></html>`

func TestSSRState_UniversalBlob(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(universalFixture),
	}}

	s := &SSRState{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	require.NoError(t, err)
	require.NotNil(t, res)

	require.NotNil(t, res.Followers)
	assert.Equal(t, int64(250000), *res.Followers)
	require.NotNil(t, res.Following)
	assert.Equal(t, int64(12), *res.Following)
	require.NotNil(t, res.PostsCount)
	assert.Equal(t, int64(140), *res.PostsCount)
	require.NotNil(t, res.Bio)
	assert.Equal(t, "Dream big & ship.", *res.Bio)

	// The current blob generation carries no items.
	assert.Empty(t, res.Posts)
	assert.Equal(t, model.ClassPartial, strategy.Classify(res, nil))
}

func TestSSRState_SigiBlob(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(sigiFixture),
	}}

	s := &SSRState{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	require.NoError(t, err)
	require.NotNil(t, res)

	require.NotNil(t, res.Followers)
	assert.Equal(t, int64(98000), *res.Followers)
	require.NotNil(t, res.Bio)
	assert.Equal(t, "B2B coffee gear", *res.Bio)

	require.Len(t, res.Posts, 3)
	assert.Equal(t, "7100000000000000002", res.Posts[0].ID)
	assert.Equal(t, "7100000000000000001", res.Posts[1].ID)
	assert.Equal(t, "7100000000000000003", res.Posts[2].ID)

	first := res.Posts[0]
	assert.Equal(t, "https://www.tiktok.com/@brandco/video/7100000000000000002", first.URL)
	assert.Equal(t, "May launch", first.CaptionSnippet)
	assert.Equal(t, model.MediaVideo, first.MediaType)
	require.NotNil(t, first.Likes)
	assert.Equal(t, int64(2400), *first.Likes)
	require.NotNil(t, first.Comments)
	assert.Equal(t, int64(120), *first.Comments)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), first.PostedAt.UTC())

	assert.Equal(t, model.ClassRich, strategy.Classify(res, nil))
}

func TestSSRState_SigiPostLimit(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(sigiFixture),
	}}

	q := query(net)
	q.PostLimit = 2
	s := &SSRState{cfg: testConfig()}
	res, err := s.Run(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, res.Posts, 2)
}

func TestSSRState_NoBlob(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(`<html><body><h1>brandco</h1></body></html>`),
	}}

	s := &SSRState{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, strategy.NoFieldsFound, strategy.KindOf(err))
}

func TestSSRState_RateLimited(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": {StatusCode: 429, Header: http.Header{}},
	}}

	s := &SSRState{cfg: testConfig()}
	_, err := s.Run(context.Background(), query(net))
	require.Error(t, err)
	assert.True(t, strategy.IsRateLimited(err))
}

func TestOEmbed(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		oembedURL: {
			StatusCode: 200,
			Header:     http.Header{},
			Body:       []byte(`{"version":"1.0","type":"rich","title":"BrandCo &middot; daily espresso science","author_name":"BrandCo"}`),
		},
	}}

	s := &OEmbed{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	require.NoError(t, err)
	require.NotNil(t, res.Bio)
	assert.Equal(t, "BrandCo · daily espresso science", *res.Bio)
	assert.Nil(t, res.Followers)
	assert.Equal(t, model.ClassPartial, strategy.Classify(res, nil))
}

func TestOEmbed_NothingRecognizable(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		oembedURL: {StatusCode: 200, Header: http.Header{}, Body: []byte(`{}`)},
	}}

	s := &OEmbed{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, strategy.NoFieldsFound, strategy.KindOf(err))
}

func TestHTMLMeta_OGCounts(t *testing.T) {
	page := `<html><head>
<meta property="og:description" content="250.5K Followers, 12 Following - watch BrandCo videos"/>
</head><body></body></html>`
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(page),
	}}

	s := &HTMLMeta{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	require.NoError(t, err)
	require.NotNil(t, res.Followers)
	assert.Equal(t, int64(250500), *res.Followers)
	require.NotNil(t, res.Following)
	assert.Equal(t, int64(12), *res.Following)
	assert.Nil(t, res.PostsCount)
}

func TestHTMLMeta_BlobFragmentsWin(t *testing.T) {
	page := `<html><head>
<meta property="og:description" content="98K Fans - watch BrandCo videos"/>
</head><body>
<script>var partial = {"stats":{"followerCount":98123,"followingCount":45,"videoCount":210},"user":{"signature":"B2B coffee gear"}};</script>
<script>var item = {"id":"7100000000000000009","desc":"Teaser clip","createTime":"1714521600","stats":{"diggCount":77,"commentCount":5},"video":{"duration":15}};</script>
</body></html>`
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(page),
	}}

	s := &HTMLMeta{cfg: testConfig()}
	res, err := s.Run(context.Background(), query(net))
	require.NoError(t, err)

	require.NotNil(t, res.Followers)
	assert.Equal(t, int64(98123), *res.Followers)
	require.NotNil(t, res.Bio)
	assert.Equal(t, "B2B coffee gear", *res.Bio)

	require.Len(t, res.Posts, 1)
	post := res.Posts[0]
	assert.Equal(t, "7100000000000000009", post.ID)
	assert.Equal(t, "Teaser clip", post.CaptionSnippet)
	assert.Equal(t, model.MediaVideo, post.MediaType)
	require.NotNil(t, post.Likes)
	assert.Equal(t, int64(77), *post.Likes)
}

func TestHTMLMeta_LoginWall(t *testing.T) {
	net := &fakeProvider{responses: map[string]*netaccess.Response{
		"https://www.tiktok.com/@brandco": htmlResp(`<html><body>Log in to see this account</body></html>`),
	}}

	s := &HTMLMeta{cfg: testConfig()}
	_, err := s.Run(context.Background(), query(net))
	require.Error(t, err)
	assert.Equal(t, strategy.AuthRequired, strategy.KindOf(err))
}

func TestCascade_Order(t *testing.T) {
	names := []string{}
	for _, s := range Cascade(Config{}) {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"ssr_state", "oembed", "html_meta"}, names)
}
