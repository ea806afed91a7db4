// Package reconcile composes the partial results a cascade run collected
// into the single output record handed to the job sink.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/sells-group/social-intel/internal/model"
)

// Merge combines outcomes ordered by decreasing trust into one composite
// record. Per scalar field the first non-nil value wins. Posts come from
// the first outcome with a non-empty list only, truncated to limit; lists
// from different strategies are never mixed. Error is set only when the
// merged record holds no usable data at all.
func Merge(platform model.Platform, handle string, limit int, outcomes []model.StrategyOutcome) model.CompositeResult {
	out := model.CompositeResult{Platform: platform, Handle: handle}

	for _, o := range outcomes {
		res := o.Result
		if res == nil {
			continue
		}

		took := pick(&out.Followers, res.Followers)
		took = pick(&out.Following, res.Following) || took
		took = pick(&out.PostsCount, res.PostsCount) || took
		took = pick(&out.Bio, res.Bio) || took

		if len(out.Posts) == 0 && len(res.Posts) > 0 {
			out.Posts = truncate(res.Posts, limit)
			took = true
		}

		if took {
			out.Sources = append(out.Sources, o.Strategy)
		}
	}

	if !out.Usable() {
		out.Error = describeFailure(outcomes)
	}
	return out
}

// pick copies src into dst when dst is still unset.
func pick[T any](dst **T, src *T) bool {
	if *dst != nil || src == nil {
		return false
	}
	*dst = src
	return true
}

func truncate(posts []model.PostRecord, limit int) []model.PostRecord {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

func describeFailure(outcomes []model.StrategyOutcome) string {
	if len(outcomes) == 0 {
		return "no strategies ran"
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		parts = append(parts, fmt.Sprintf("%s=%s", o.Strategy, o.Class))
	}
	return "no usable data recovered: " + strings.Join(parts, ", ")
}
