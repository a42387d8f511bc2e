package pipeline

import (
	"time"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
)

// Status is the outcome of one target within a cycle.
type Status string

const (
	StatusStored      Status = "stored"
	StatusSkipped     Status = "skipped"
	StatusFetchFailed Status = "fetch_failed"
	StatusStoreFailed Status = "store_failed"
)

// Report summarises one cycle.
type Report struct {
	Capture domain.Capture
	// Gated is true when the cycle ran outside the active window and did nothing.
	Gated    bool
	Results  []TargetResult
	Duration time.Duration
}

// Count returns the number of targets that ended with status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// TargetResult is the outcome for a single target. Live and Historical are
// whatever the parser extracted; Anomaly is set only when the row was stored.
type TargetResult struct {
	Target     domain.Target
	Status     Status
	Live       *int
	Historical *int
	Anomaly    *int
	Err        error
	Duration   time.Duration
}
