// Package model defines the domain types shared across the extraction engine.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Platform identifies a supported social network.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
)

// ParsePlatform converts a string into a Platform.
func ParsePlatform(s string) (Platform, error) {
	switch s {
	case "instagram", "ig":
		return PlatformInstagram, nil
	case "tiktok", "tt":
		return PlatformTikTok, nil
	case "twitter", "x":
		return PlatformTwitter, nil
	default:
		return "", eris.Errorf("unknown platform: %q (valid: instagram, tiktok, twitter)", s)
	}
}

// MediaType distinguishes post media kinds.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// PostRecord is one public post with whatever engagement fields were observed.
type PostRecord struct {
	ID             string     `json:"id,omitempty"`
	URL            string     `json:"url"`
	CaptionSnippet string     `json:"caption_snippet,omitempty"`
	Likes          *int64     `json:"likes,omitempty"`
	Comments       *int64     `json:"comments,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	MediaType      MediaType  `json:"media_type,omitempty"`

	// DateUnreliable marks timestamps outside the trusted recency horizon
	// (too old or in the future). Unreliable dates are kept on the record
	// but excluded from most-recent ordering.
	DateUnreliable bool `json:"-"`
}

// PartialProfileResult holds the fields a single strategy managed to observe.
// Nil pointers mean "not observed", which is distinct from a confirmed zero.
type PartialProfileResult struct {
	Followers  *int64       `json:"followers,omitempty"`
	Following  *int64       `json:"following,omitempty"`
	PostsCount *int64       `json:"posts_count,omitempty"`
	Bio        *string      `json:"bio,omitempty"`
	Posts      []PostRecord `json:"posts,omitempty"`
}

// HasProfileFields reports whether at least one scalar profile field was observed.
func (p *PartialProfileResult) HasProfileFields() bool {
	if p == nil {
		return false
	}
	return p.Followers != nil || p.Following != nil || p.PostsCount != nil || p.Bio != nil
}

// Usable reports whether the result carries at least one post or one
// scalar profile field.
func (p *PartialProfileResult) Usable() bool {
	if p == nil {
		return false
	}
	return len(p.Posts) > 0 || p.HasProfileFields()
}

// Classification describes how a strategy outcome is treated by the cascade.
type Classification string

const (
	// ClassRich means posts plus at least one profile field were recovered.
	ClassRich Classification = "rich"
	// ClassPartial means some fields were recovered, but not a full record.
	ClassPartial Classification = "partial"
	// ClassEmpty means the source was reachable and parsed but nothing
	// recognizable was found.
	ClassEmpty Classification = "empty"
	// ClassFailed covers network faults, bad statuses, and malformed payloads.
	ClassFailed Classification = "failed"
	// ClassAuthRequired means the source was reachable but login-walled.
	ClassAuthRequired Classification = "auth_required"
	// ClassRateLimited means the source throttled us; retryable once with a
	// fresh network identity.
	ClassRateLimited Classification = "rate_limited"
)

// StrategyOutcome tags a partial result with the strategy that produced it.
// Outcomes live only within one cascade run.
type StrategyOutcome struct {
	Strategy string                `json:"strategy"`
	Class    Classification        `json:"class"`
	Result   *PartialProfileResult `json:"result,omitempty"`
	Err      error                 `json:"-"`
}

// CompositeResult is the single output record handed to the job sink.
// Error is non-empty only when no usable data was recovered by any strategy.
type CompositeResult struct {
	Platform   Platform     `json:"platform"`
	Handle     string       `json:"handle"`
	Followers  *int64       `json:"followers"`
	Following  *int64       `json:"following"`
	PostsCount *int64       `json:"posts_count"`
	Bio        *string      `json:"bio"`
	Posts      []PostRecord `json:"posts"`
	Error      string       `json:"error,omitempty"`

	// Sources lists the strategies that contributed fields, in trust order.
	Sources []string `json:"sources,omitempty"`
}

// Usable reports whether the composite carries any recovered data.
func (c *CompositeResult) Usable() bool {
	if c == nil {
		return false
	}
	return len(c.Posts) > 0 ||
		c.Followers != nil || c.Following != nil || c.PostsCount != nil || c.Bio != nil
}
