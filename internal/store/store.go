// Package store persists job records. The extraction engine itself never
// touches persistence; the CLI and server attach job metadata to composite
// results and append them here.
package store

import (
	"context"

	"github.com/sells-group/social-intel/internal/model"
)

// JobFilter specifies criteria for listing job records.
type JobFilter struct {
	Platform model.Platform  `json:"platform,omitempty"`
	Handle   string          `json:"handle,omitempty"`
	Status   model.JobStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the job-record sink.
type Store interface {
	SaveResult(ctx context.Context, job model.JobRecord) error
	GetJob(ctx context.Context, id string) (*model.JobRecord, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.JobRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}
