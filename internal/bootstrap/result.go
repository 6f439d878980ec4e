package bootstrap

import "github.com/router-for-me/proxyseed/internal/modelstore"

// Status classifies the outcome of a bootstrap attempt.
type Status int

const (
	// StatusSkipped means no store is configured; nothing was touched.
	StatusSkipped Status = iota
	// StatusAlreadySeeded means the sentinel was already set.
	StatusAlreadySeeded
	// StatusSeeded means defaults were written in this attempt.
	StatusSeeded
	// StatusFailed means the attempt was rolled back.
	StatusFailed
)

// String returns the status name used in logs and the status API.
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusAlreadySeeded:
		return "already_seeded"
	case StatusSeeded:
		return "seeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one bootstrap attempt.
type Result struct {
	Status         Status
	OrganizationID string
	BudgetID       string
	Outcomes       []modelstore.Outcome
	Err            error
}

// Healthy reports whether the service may serve with this result.
func (r Result) Healthy() bool {
	return r.Status != StatusFailed
}

// CreatedModels counts outcomes that inserted a new model row.
func (r Result) CreatedModels() int {
	created := 0
	for _, outcome := range r.Outcomes {
		if outcome.Created {
			created++
		}
	}
	return created
}
