// Package strategy defines the retrieval-strategy contract the cascade
// runs: each strategy is a named function from (handle, post limit, network
// access) to a nullable partial result. Failures never escape a strategy
// boundary as anything but a classified error.
package strategy

import (
	"context"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
)

// Query is one immutable extraction request against a single target.
type Query struct {
	Platform  model.Platform
	Handle    string
	PostLimit int
	Net       netaccess.Provider
}

// Strategy is one named retrieval+parse approach for a platform.
//
// Run returns (nil, *Failure) on classified failure, (result, nil) when the
// source was reachable and parsed, including results with nothing usable in
// them, which fall through the cascade silently. A strategy may also return
// a partial result alongside an error when it observed some fields before
// failing; those fields still carry forward.
type Strategy interface {
	Name() string
	Run(ctx context.Context, q Query) (*model.PartialProfileResult, error)
}

// Classify computes how the cascade treats a strategy's return values.
// Classification is explicit here, never inferred ad hoc at call sites.
func Classify(res *model.PartialProfileResult, err error) model.Classification {
	if err != nil {
		switch KindOf(err) {
		case RateLimited:
			return model.ClassRateLimited
		case AuthRequired:
			return model.ClassAuthRequired
		case NoFieldsFound:
			return model.ClassEmpty
		default:
			return model.ClassFailed
		}
	}
	if !res.Usable() {
		return model.ClassEmpty
	}
	if len(res.Posts) > 0 && res.HasProfileFields() {
		return model.ClassRich
	}
	return model.ClassPartial
}

// Outcome tags a strategy's return values for the cascade.
func Outcome(name string, res *model.PartialProfileResult, err error) model.StrategyOutcome {
	return model.StrategyOutcome{
		Strategy: name,
		Class:    Classify(res, err),
		Result:   res,
		Err:      err,
	}
}

// CheckResponse converts a blocked or failed HTTP response into the
// corresponding classified failure. A nil return means the payload is worth
// parsing.
func CheckResponse(resp *netaccess.Response) error {
	if blocked, kind := netaccess.DetectBlock(resp); blocked {
		switch kind {
		case netaccess.BlockRateLimit:
			return Failf(RateLimited, "throttled (status %d)", resp.StatusCode)
		case netaccess.BlockLoginWall:
			return Failf(AuthRequired, "login wall detected")
		default:
			return FailStatus(HTTPStatusFailure, resp.StatusCode, "blocked (%s)", kind)
		}
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return Failf(AuthRequired, "status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return FailStatus(HTTPStatusFailure, resp.StatusCode, "status %d", resp.StatusCode)
	}
	return nil
}
