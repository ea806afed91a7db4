package strategy

import (
	"errors"
	"fmt"
)

// FailureKind is the taxonomy of classified strategy failures.
type FailureKind int

const (
	// NetworkFailure covers timeouts, connection and DNS errors.
	NetworkFailure FailureKind = iota + 1
	// HTTPStatusFailure covers non-success statuses and hard blocks.
	HTTPStatusFailure
	// AuthRequired means the source is reachable but login-walled.
	AuthRequired
	// RateLimited means the source throttled this identity.
	RateLimited
	// MalformedPayload means the payload did not parse as expected.
	MalformedPayload
	// NoFieldsFound means the payload parsed but held nothing recognizable.
	NoFieldsFound
)

func (k FailureKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case HTTPStatusFailure:
		return "http_status_failure"
	case AuthRequired:
		return "auth_required"
	case RateLimited:
		return "rate_limited"
	case MalformedPayload:
		return "malformed_payload"
	case NoFieldsFound:
		return "no_fields_found"
	default:
		return "unknown"
	}
}

// Failure is a classified strategy error. Every failure a strategy returns
// is one of these; the cascade converts them to its stop/retry/next rules.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s", f.Kind, f.Err.Error())
	}
	return f.Kind.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Fail wraps err as a classified failure.
func Fail(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failf creates a classified failure from a format string.
func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// FailStatus creates a classified failure carrying an HTTP status.
func FailStatus(kind FailureKind, status int, format string, args ...any) *Failure {
	return &Failure{Kind: kind, StatusCode: status, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. Unclassified errors
// report NetworkFailure, the conservative default for transport faults.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return NetworkFailure
}

// IsRateLimited reports whether err is a rate-limit failure. The cascade's
// single-retry rule keys off this.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == RateLimited
}
