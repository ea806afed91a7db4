// Package cascade runs a platform's strategies in priority order and
// applies the stop/retry rules: halt on the first usable result, retry a
// rate-limited strategy once with a fresh network identity, otherwise move
// on carrying observed partials forward.
package cascade

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/reconcile"
	"github.com/sells-group/social-intel/internal/resilience"
	"github.com/sells-group/social-intel/internal/strategy"
)

// Options tunes a Controller.
type Options struct {
	// Retry applies per strategy; ShouldRetry and OnRetry are owned by the
	// controller and overwritten.
	Retry resilience.RetryConfig

	// BreakerThreshold enables a per-strategy circuit breaker when > 0.
	// A strategy whose transport keeps failing is skipped for the cooldown
	// instead of burning an attempt on every query in a batch.
	BreakerThreshold int
	BreakerWindow    time.Duration
	BreakerCooldown  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Retry.MaxAttempts == 0 {
		o.Retry = resilience.DefaultRetryConfig()
	}
	if o.BreakerWindow <= 0 {
		o.BreakerWindow = 10 * time.Minute
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 5 * time.Minute
	}
	return o
}

// Controller owns the per-query strategy state machine. Safe for use from
// concurrent batch workers; strategies themselves are stateless.
type Controller struct {
	registry *strategy.Registry
	opts     Options

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// New creates a controller over a populated registry.
func New(reg *strategy.Registry, opts Options) *Controller {
	return &Controller{
		registry: reg,
		opts:     opts.withDefaults(),
		breakers: make(map[string]*resilience.Breaker),
	}
}

// Run executes the cascade for one query and returns the composed record.
// It never returns an error: every failure mode ends up classified inside
// the CompositeResult.
func (c *Controller) Run(ctx context.Context, q strategy.Query) model.CompositeResult {
	strategies, err := c.registry.Strategies(q.Platform)
	if err != nil {
		return model.CompositeResult{Platform: q.Platform, Handle: q.Handle, Error: err.Error()}
	}

	log := zap.L().With(
		zap.String("platform", string(q.Platform)),
		zap.String("handle", q.Handle),
	)

	var outcomes []model.StrategyOutcome
	for _, s := range strategies {
		br := c.breaker(q.Platform, s.Name())
		if br != nil && br.Open() {
			log.Debug("skipping strategy, circuit open", zap.String("strategy", s.Name()))
			continue
		}

		res, err := c.attempt(ctx, s, q)
		outcome := strategy.Outcome(s.Name(), res, err)
		outcomes = append(outcomes, outcome)

		if br != nil {
			if transportFault(err) {
				br.RecordFailure()
			} else {
				br.RecordSuccess()
			}
		}

		log.Info("strategy finished",
			zap.String("strategy", s.Name()),
			zap.String("class", string(outcome.Class)),
			zap.Error(err),
		)

		if err == nil && res.Usable() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return reconcile.Merge(q.Platform, q.Handle, q.PostLimit, outcomes)
}

// attempt runs one strategy with the single-retry-on-throttle rule. The
// retry requests a fresh network identity first; reusing a throttled one
// would burn the second attempt.
func (c *Controller) attempt(ctx context.Context, s strategy.Strategy, q strategy.Query) (*model.PartialProfileResult, error) {
	onRetryLog := resilience.RetryLogger(string(q.Platform), s.Name())

	cfg := c.opts.Retry
	cfg.ShouldRetry = strategy.IsRateLimited
	cfg.OnRetry = func(attempt int, err error) {
		q.Net.Rotate()
		onRetryLog(attempt, err)
	}

	var res *model.PartialProfileResult
	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		var runErr error
		res, runErr = s.Run(ctx, q)
		return runErr
	})
	return res, err
}

func (c *Controller) breaker(p model.Platform, name string) *resilience.Breaker {
	if c.opts.BreakerThreshold <= 0 {
		return nil
	}
	key := string(p) + "/" + name
	c.mu.Lock()
	defer c.mu.Unlock()
	br, ok := c.breakers[key]
	if !ok {
		br = resilience.NewBreaker(c.opts.BreakerThreshold, c.opts.BreakerWindow, c.opts.BreakerCooldown)
		c.breakers[key] = br
	}
	return br
}

// transportFault reports whether an error should count against a
// strategy's circuit. Reachable-but-empty and login-walled sources are the
// upstream working as deployed, not a fault.
func transportFault(err error) bool {
	if err == nil {
		return false
	}
	switch strategy.KindOf(err) {
	case strategy.NetworkFailure, strategy.HTTPStatusFailure, strategy.RateLimited:
		return true
	default:
		return false
	}
}
