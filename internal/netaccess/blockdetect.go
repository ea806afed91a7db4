package netaccess

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of access denial detected in a response.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockLoginWall  BlockType = "login_wall"
	BlockRateLimit  BlockType = "rate_limit"
	BlockJSShell    BlockType = "js_shell"
)

// DetectBlock checks a response for signs of anti-bot protection, login
// walls, or throttling. Strategies use the result to classify an attempt
// instead of treating the payload as parseable content.
func DetectBlock(resp *Response) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true, BlockRateLimit
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, BlockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(resp.Body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		(strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge")) {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") ||
		strings.Contains(lower, "solve the captcha") {
		return true, BlockCaptcha
	}

	// Login walls on profile pages.
	if strings.Contains(lower, "/accounts/login") ||
		strings.Contains(lower, "log in to see") ||
		strings.Contains(lower, "login to continue") ||
		strings.Contains(lower, "sign in to view") {
		return true, BlockLoginWall
	}

	if strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "wait a few minutes before you try again") {
		return true, BlockRateLimit
	}

	// JS-only shell: very small body that just bootstraps a script app.
	if len(resp.Body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}

	return false, BlockNone
}
