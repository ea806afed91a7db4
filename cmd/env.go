package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/browser"
	"github.com/sells-group/social-intel/internal/cascade"
	"github.com/sells-group/social-intel/internal/extract"
	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/netaccess"
	"github.com/sells-group/social-intel/internal/resilience"
	"github.com/sells-group/social-intel/internal/store"
	"github.com/sells-group/social-intel/internal/strategy"
	"github.com/sells-group/social-intel/internal/strategy/instagram"
	"github.com/sells-group/social-intel/internal/strategy/tiktok"
	"github.com/sells-group/social-intel/internal/strategy/twitter"
)

// env bundles the wired application components the commands share.
type env struct {
	Store    *store.SQLiteStore
	Net      *netaccess.Client
	Cascade  *cascade.Controller
	Renderer *browser.Renderer

	pool    *netaccess.Pool
	netOpts netaccess.Options
}

// newNetClient builds a fresh client over the shared identity pool. Each
// concurrent query gets its own client so a mid-cascade Rotate never swaps
// the identity out from under another query in flight.
func (e *env) newNetClient() *netaccess.Client {
	return netaccess.NewClient(e.pool, e.netOpts)
}

func (e *env) Close() {
	if e.Renderer != nil {
		if err := e.Renderer.Close(); err != nil {
			zap.L().Warn("browser close failed", zap.Error(err))
		}
	}
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("store close failed", zap.Error(err))
		}
	}
}

func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initEnv wires the netaccess client, strategy registry, and cascade
// controller from configuration.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	pool := netaccess.NewPool(cfg.Net.Proxies)
	opts := netaccess.Options{
		Timeout:      time.Duration(cfg.Net.TimeoutSecs) * time.Second,
		PerHostRPS:   cfg.Net.PerHostRPS,
		Burst:        cfg.Net.Burst,
		MaxBodyBytes: cfg.Net.MaxBodyBytes,
	}

	e := &env{Store: st, pool: pool, netOpts: opts}
	e.Net = e.newNetClient()

	if cfg.Browser.Enabled {
		r, err := browser.New(browser.WithTimeout(time.Duration(cfg.Browser.TimeoutSecs) * time.Second))
		if err != nil {
			// Rendering is a last-resort fallback; run without it.
			zap.L().Warn("browser launch failed, rendered-page strategies disabled", zap.Error(err))
		} else {
			e.Renderer = r
		}
	}

	window := extract.Window{Before: cfg.Extract.WindowBefore, After: cfg.Extract.WindowAfter}
	horizon := cfg.Extract.Horizon()

	reg := strategy.NewRegistry()
	reg.Register(model.PlatformInstagram, instagram.Cascade(instagram.Config{
		Window: window, Horizon: horizon, Renderer: renderer(e),
	})...)
	reg.Register(model.PlatformTikTok, tiktok.Cascade(tiktok.Config{
		Window: window, Horizon: horizon, Renderer: renderer(e),
	})...)
	reg.Register(model.PlatformTwitter, twitter.Cascade(twitter.Config{
		Window: window, Horizon: horizon, Renderer: renderer(e),
	})...)

	e.Cascade = cascade.New(reg, cascade.Options{
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: time.Duration(cfg.Retry.BackoffSecs) * time.Second,
		},
		BreakerThreshold: cfg.Breaker.Threshold,
		BreakerWindow:    time.Duration(cfg.Breaker.WindowMins) * time.Minute,
		BreakerCooldown:  time.Duration(cfg.Breaker.CooldownMins) * time.Minute,
	})

	return e, nil
}

// renderer returns the strategy-facing view of the optional browser. A nil
// interface, not a typed nil, when rendering is off.
func renderer(e *env) strategy.PageRenderer {
	if e.Renderer == nil {
		return nil
	}
	return e.Renderer
}
