package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/social-intel/internal/cascade"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/store"
	"github.com/sells-group/social-intel/internal/strategy"
)

type stubStrategy struct {
	name string
	res  *model.PartialProfileResult
	err  error
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Run(_ context.Context, _ strategy.Query) (*model.PartialProfileResult, error) {
	return s.res, s.err
}

// newTestEnv wires a router env against a temp sqlite store and a single
// stubbed instagram strategy.
func newTestEnv(t *testing.T, s strategy.Strategy) *env {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })

	reg := strategy.NewRegistry()
	reg.Register(model.PlatformInstagram, s)

	e := &env{Store: st, pool: netaccess.NewPool(nil)}
	e.Net = e.newNetClient()
	e.Cascade = cascade.New(reg, cascade.Options{})
	return e
}

func richStub() *stubStrategy {
	followers := int64(4200)
	bio := "Specialty roaster."
	return &stubStrategy{
		name: "web_profile_info",
		res: &model.PartialProfileResult{
			Followers: &followers,
			Bio:       &bio,
			Posts:     []model.PostRecord{{ID: "Cmay", URL: "https://www.instagram.com/p/Cmay/"}},
		},
	}
}

func postScrape(t *testing.T, h http.Handler, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/scrape", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	h := newRouter(newTestEnv(t, richStub()), 12)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestScrapeEndpoint_ReturnsJob(t *testing.T) {
	h := newRouter(newTestEnv(t, richStub()), 12)

	rr := postScrape(t, h, map[string]any{"platform": "instagram", "handle": "brandco"})
	require.Equal(t, http.StatusOK, rr.Code)

	var job model.JobRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.PlatformInstagram, job.Platform)
	assert.Equal(t, model.JobSucceeded, job.Status)
	require.NotNil(t, job.Result.Followers)
	assert.Equal(t, int64(4200), *job.Result.Followers)
	require.Len(t, job.Result.Posts, 1)
	assert.Equal(t, []string{"web_profile_info"}, job.Result.Sources)
}

func TestScrapeEndpoint_Validation(t *testing.T) {
	h := newRouter(newTestEnv(t, richStub()), 12)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"unknown platform", map[string]any{"platform": "myspace", "handle": "brandco"}},
		{"missing handle", map[string]any{"platform": "instagram"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postScrape(t, h, tt.payload)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/scrape", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestScrapeEndpoint_SavePersistsJob(t *testing.T) {
	e := newTestEnv(t, richStub())
	h := newRouter(e, 12)

	rr := postScrape(t, h, map[string]any{
		"platform": "instagram", "handle": "brandco", "display_name": "BrandCo", "save": true,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var job model.JobRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))

	stored, err := e.Store.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "BrandCo", stored.DisplayName)
	assert.Equal(t, model.JobSucceeded, stored.Status)
}

func TestJobsEndpoint_ListsAndFilters(t *testing.T) {
	e := newTestEnv(t, richStub())
	h := newRouter(e, 12)

	for _, handle := range []string{"brandco", "otherco"} {
		rr := postScrape(t, h, map[string]any{"platform": "instagram", "handle": handle, "save": true})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs?handle=brandco", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var jobs []model.JobRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "brandco", jobs[0].Handle)
}

func TestScrapeEndpoint_FailedCascadeStillReturnsJob(t *testing.T) {
	empty := &stubStrategy{
		name: "web_profile_info",
		err:  strategy.Failf(strategy.NoFieldsFound, "nothing recognizable"),
	}
	h := newRouter(newTestEnv(t, empty), 12)

	rr := postScrape(t, h, map[string]any{"platform": "instagram", "handle": "brandco"})
	require.Equal(t, http.StatusOK, rr.Code)

	var job model.JobRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
	assert.Equal(t, model.JobFailed, job.Status)
	assert.NotEmpty(t, job.Result.Error)
}
