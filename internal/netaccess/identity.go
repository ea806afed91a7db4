package netaccess

import (
	"sync"

	"github.com/google/uuid"
)

// Identity is one proxy endpoint / session combination used for one or more
// requests. Rotation on rate-limiting always produces a distinct Session.
type Identity struct {
	ProxyURL  string
	UserAgent string
	Session   string
}

// Pool hands out rotating network identities. Proxy endpoints are cycled
// round-robin; each rotation also picks a fresh browser user agent and a new
// session id so cookie state never carries over.
type Pool struct {
	mu      sync.Mutex
	proxies []string
	idx     int
	uaIdx   int
	current Identity
}

// NewPool creates a pool over the given proxy endpoints. An empty slice
// means direct connections; identities still rotate user agent and session.
func NewPool(proxies []string) *Pool {
	p := &Pool{proxies: proxies}
	p.current = p.next()
	return p
}

// Current returns the identity in use.
func (p *Pool) Current() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Rotate advances to a fresh identity and returns it.
func (p *Pool) Rotate() Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.next()
	return p.current
}

// userAgents is a rotation of current desktop browser identities. Kept
// static so identity churn stays deterministic and offline.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
}

func (p *Pool) next() Identity {
	id := Identity{
		UserAgent: userAgents[p.uaIdx%len(userAgents)],
		Session:   uuid.New().String(),
	}
	p.uaIdx++
	if len(p.proxies) > 0 {
		id.ProxyURL = p.proxies[p.idx%len(p.proxies)]
		p.idx++
	}
	return id
}
