package netaccess

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures the HTTP client.
type Options struct {
	// Timeout bounds every request. Default: 20s.
	Timeout time.Duration
	// PerHostRPS paces requests per remote host. Default: 1 rps.
	PerHostRPS float64
	// Burst is the per-host limiter burst. Default: 2.
	Burst int
	// MaxBodyBytes caps response bodies. Default: 2 MiB.
	MaxBodyBytes int64
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 20 * time.Second
	}
	if o.PerHostRPS <= 0 {
		o.PerHostRPS = 1
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 2 << 20
	}
	return o
}

// Client implements Provider over resty with a cloudflare-bypass transport,
// a rotating identity pool, and per-host pacing. Requests never run in
// parallel against the same host faster than the limiter allows, keeping
// the anti-bot signal low.
type Client struct {
	opts Options
	pool *Pool

	mu   sync.Mutex
	http *resty.Client
	id   Identity

	lmu      sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ Provider = (*Client)(nil)

// NewClient creates a Client drawing identities from pool.
func NewClient(pool *Pool, opts Options) *Client {
	c := &Client{
		opts:     opts.withDefaults(),
		pool:     pool,
		limiters: make(map[string]*rate.Limiter),
	}
	c.id = pool.Current()
	c.http = c.build(c.id)
	return c
}

// build constructs a resty client bound to one identity: fresh cookie jar,
// proxy, user agent, and the cloudflare-bypass round tripper.
func (c *Client) build(id Identity) *resty.Client {
	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		httpClient.SetCookieJar(jar)
	}
	if id.ProxyURL != "" {
		// SetProxy must run before the transport is wrapped; it needs the
		// underlying *http.Transport.
		httpClient.SetProxy(id.ProxyURL)
	}
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("User-Agent", id.UserAgent)
	httpClient.SetTimeout(c.opts.Timeout)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return httpClient
}

// Rotate discards the current identity and builds a fresh session.
func (c *Client) Rotate() {
	id := c.pool.Rotate()
	c.mu.Lock()
	c.id = id
	c.http = c.build(id)
	c.mu.Unlock()
	zap.L().Debug("netaccess: rotated identity",
		zap.String("session", id.Session),
		zap.String("proxy", id.ProxyURL),
	)
}

// Identity returns the identity currently in use.
func (c *Client) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Do performs one request through the current identity.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.wait(ctx, req.URL); err != nil {
		return nil, eris.Wrap(err, "netaccess: rate limit wait")
	}

	c.mu.Lock()
	httpClient := c.http
	c.mu.Unlock()

	r := httpClient.R().SetContext(ctx)
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "netaccess: %s %s", method, req.URL)
	}

	body := resp.Body()
	if int64(len(body)) > c.opts.MaxBodyBytes {
		body = body[:c.opts.MaxBodyBytes]
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Cookies:    resp.Cookies(),
		Body:       body,
	}, nil
}

func (c *Client) wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil // let the request itself surface the bad URL
	}
	host := u.Hostname()

	c.lmu.Lock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.opts.PerHostRPS), c.opts.Burst)
		c.limiters[host] = lim
	}
	c.lmu.Unlock()

	return lim.Wait(ctx)
}
