package strategy

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
)

type stubStrategy struct {
	name string
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Run(_ context.Context, _ Query) (*model.PartialProfileResult, error) {
	return nil, nil
}

func TestClassify(t *testing.T) {
	followers := int64(100)
	bio := "brand"

	tests := []struct {
		name string
		res  *model.PartialProfileResult
		err  error
		want model.Classification
	}{
		{"rate limited", nil, Failf(RateLimited, "throttled"), model.ClassRateLimited},
		{"auth required", nil, Failf(AuthRequired, "login wall"), model.ClassAuthRequired},
		{"no fields", nil, Failf(NoFieldsFound, "nothing recognizable"), model.ClassEmpty},
		{"malformed", nil, Failf(MalformedPayload, "bad json"), model.ClassFailed},
		{"unclassified error", nil, errors.New("dial tcp: timeout"), model.ClassFailed},
		{"nil result no error", nil, nil, model.ClassEmpty},
		{"empty result", &model.PartialProfileResult{}, nil, model.ClassEmpty},
		{"fields only", &model.PartialProfileResult{Bio: &bio}, nil, model.ClassPartial},
		{"posts only", &model.PartialProfileResult{Posts: []model.PostRecord{{URL: "u"}}}, nil, model.ClassPartial},
		{"rich", &model.PartialProfileResult{
			Followers: &followers,
			Posts:     []model.PostRecord{{URL: "u"}},
		}, nil, model.ClassRich},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.res, tt.err))
		})
	}
}

func TestFailureKindRoundTrip(t *testing.T) {
	err := Failf(RateLimited, "slow down")
	wrapped := errors.Join(errors.New("outer"), err)

	assert.Equal(t, RateLimited, KindOf(err))
	assert.Equal(t, RateLimited, KindOf(wrapped))
	assert.True(t, IsRateLimited(wrapped))
	assert.False(t, IsRateLimited(nil))
	assert.Equal(t, NetworkFailure, KindOf(errors.New("plain")), "unclassified defaults to network failure")
}

func TestCheckResponse(t *testing.T) {
	ok := &netaccess.Response{StatusCode: 200, Header: http.Header{}, Body: []byte("<html>fine</html>")}
	assert.NoError(t, CheckResponse(ok))

	throttled := &netaccess.Response{StatusCode: 429, Header: http.Header{}}
	assert.True(t, IsRateLimited(CheckResponse(throttled)))

	login := &netaccess.Response{StatusCode: 200, Header: http.Header{}, Body: []byte(`href="/accounts/login"`)}
	assert.Equal(t, AuthRequired, KindOf(CheckResponse(login)))

	forbidden := &netaccess.Response{StatusCode: 403, Header: http.Header{}}
	assert.Equal(t, AuthRequired, KindOf(CheckResponse(forbidden)))

	server := &netaccess.Response{StatusCode: 500, Header: http.Header{}}
	assert.Equal(t, HTTPStatusFailure, KindOf(CheckResponse(server)))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	_, err := r.Strategies(model.PlatformInstagram)
	assert.Error(t, err)

	a := stubStrategy{name: "a"}
	b := stubStrategy{name: "b"}
	r.Register(model.PlatformInstagram, a)
	r.Register(model.PlatformInstagram, b)
	r.Register(model.PlatformTikTok, a)

	ss, err := r.Strategies(model.PlatformInstagram)
	require.NoError(t, err)
	require.Len(t, ss, 2)
	assert.Equal(t, "a", ss[0].Name())
	assert.Equal(t, "b", ss[1].Name())

	assert.Equal(t, []model.Platform{model.PlatformInstagram, model.PlatformTikTok}, r.Platforms())
}
