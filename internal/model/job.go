package model

import "time"

// JobStatus tracks the lifecycle of a persisted scrape job.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// JobRecord is the orchestrator-side envelope around one CompositeResult.
// The engine itself never persists; the CLI attaches job metadata and
// appends records to the store.
type JobRecord struct {
	ID          string          `json:"id"`
	Platform    Platform        `json:"platform"`
	Handle      string          `json:"handle"`
	DisplayName string          `json:"display_name,omitempty"`
	Status      JobStatus       `json:"status"`
	Result      CompositeResult `json:"result"`
	CapturedAt  time.Time       `json:"captured_at"`
}

// StatusFor derives the job status from a composite result.
func StatusFor(res CompositeResult) JobStatus {
	if res.Usable() {
		return JobSucceeded
	}
	return JobFailed
}
