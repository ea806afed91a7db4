package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTargets(t *testing.T) {
	path := writeTargets(t, `
# competitors
instagram brandco Brand Co
tt @rivalco
twitter otherco
`)

	targets, err := readTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 3)

	assert.Equal(t, model.PlatformInstagram, targets[0].platform)
	assert.Equal(t, "brandco", targets[0].handle)
	assert.Equal(t, "Brand Co", targets[0].name)

	// Aliases resolve and leading @ is stripped.
	assert.Equal(t, model.PlatformTikTok, targets[1].platform)
	assert.Equal(t, "rivalco", targets[1].handle)
	assert.Empty(t, targets[1].name)

	assert.Equal(t, model.PlatformTwitter, targets[2].platform)
}

func TestReadTargets_BadPlatform(t *testing.T) {
	path := writeTargets(t, "myspace someone\n")
	_, err := readTargets(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestReadTargets_ShortLine(t *testing.T) {
	path := writeTargets(t, "instagram\n")
	_, err := readTargets(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestFormatJobsList(t *testing.T) {
	followers := int64(10000)
	jobs := []model.JobRecord{
		{
			ID:         "job-1",
			Platform:   model.PlatformInstagram,
			Handle:     "brandco",
			Status:     model.JobSucceeded,
			CapturedAt: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
			Result: model.CompositeResult{
				Followers: &followers,
				Posts:     []model.PostRecord{{ID: "Cmay"}},
			},
		},
		{
			ID:         "job-2",
			Platform:   model.PlatformTikTok,
			Handle:     "ghost",
			Status:     model.JobFailed,
			CapturedAt: time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatJobsList(&buf, jobs)
	out := buf.String()

	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "10000")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "job-2")
	assert.Contains(t, out, "-") // no followers recovered
	assert.Contains(t, out, "failed")
}

func TestNewNetClient_RotationIsQueryLocal(t *testing.T) {
	e := &env{pool: netaccess.NewPool(nil)}

	a := e.newNetClient()
	b := e.newNetClient()
	before := b.Identity().Session

	// One worker hitting a rate limit must not swap the identity out from
	// under the others.
	a.Rotate()

	assert.NotEqual(t, a.Identity().Session, b.Identity().Session)
	assert.Equal(t, before, b.Identity().Session)
}
