// Package netaccess provides the network-access contract strategies fetch
// through: perform one HTTP request, optionally via a rotating proxy and
// session, and return status, headers, and body. Rotation hands out a fresh
// network identity, which retries request explicitly instead of reusing a
// possibly-exhausted one.
package netaccess

import (
	"context"
	"net/http"
)

// Request is one outbound fetch. Headers layer on top of the identity's
// defaults (user agent, cookies).
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response carries everything a strategy may need to classify and parse a
// fetch: status, headers, cookies set by the remote, and the bounded body.
type Response struct {
	StatusCode int
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

// Cookie returns the value of a cookie the remote set on this response.
func (r *Response) Cookie(name string) (string, bool) {
	for _, c := range r.Cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Provider abstracts request execution for the extraction engine. The
// orchestrator supplies one per query; implementations rotate proxy
// endpoints and sessions behind it.
type Provider interface {
	// Do performs a single request with a bounded timeout.
	Do(ctx context.Context, req Request) (*Response, error)

	// Rotate discards the current network identity (proxy, user agent,
	// cookie session) and acquires a fresh one.
	Rotate()

	// Identity reports the identity currently in use.
	Identity() Identity
}
