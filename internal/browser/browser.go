// Package browser drives headless Chrome for profile pages that only
// materialize their state client-side. Rendering is expensive and noisy, so
// it backs the last strategy in a cascade, never an early one.
package browser

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Renderer renders pages in a shared headless browser. Safe for concurrent
// use; every Render gets its own page.
type Renderer struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout bounds a single render. Defaults to 45s.
func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = d
	}
}

// New launches a headless browser. Close must be called when the Renderer
// is no longer needed.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{timeout: 45 * time.Second}
	for _, opt := range opts {
		opt(r)
	}

	l := launcher.New().Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "browser: launch")
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, eris.Wrap(err, "browser: connect")
	}

	r.browser = b
	r.launcher = l
	return r, nil
}

// Render navigates to url and returns the DOM after the load event.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", eris.Wrap(err, "browser: open page")
	}
	defer page.Close()
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", eris.Wrapf(err, "browser: navigate %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return "", eris.Wrapf(err, "browser: wait load %s", url)
	}

	html, err := page.HTML()
	if err != nil {
		return "", eris.Wrapf(err, "browser: read dom %s", url)
	}

	zap.L().Debug("rendered page",
		zap.String("url", url),
		zap.Duration("took", time.Since(start)),
		zap.Int("bytes", len(html)),
	)
	return html, nil
}

// Close releases browser resources.
func (r *Renderer) Close() error {
	return r.browser.Close()
}
