package models

import "time"

// RunStatus represents the state of a single run.
type RunStatus string

const (
	// RunRunning indicates the run is in progress.
	RunRunning RunStatus = "running"
	// RunCompleted indicates the run finished successfully.
	RunCompleted RunStatus = "completed"
	// RunFailed indicates the run failed.
	RunFailed RunStatus = "failed"
	// RunCancelled indicates the run was stopped before completion.
	RunCancelled RunStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunCompleted, RunFailed, RunCancelled:
		return true
	default:
		return false
	}
}

// InterventionKind classifies an intervention event within a run.
type InterventionKind string

const (
	// InterventionQuestion records a question the conscript asked a human.
	InterventionQuestion InterventionKind = "question"
	// InterventionAnswer records the human's answer.
	InterventionAnswer InterventionKind = "answer"
	// InterventionRework records review feedback returned to the conscript.
	InterventionRework InterventionKind = "rework"
)

// InterventionEvent is one human touchpoint during a run.
type InterventionEvent struct {
	// At is when the intervention happened.
	At time.Time `json:"at"`
	// Kind classifies the intervention.
	Kind InterventionKind `json:"kind"`
	// Message is the question, answer, or feedback text.
	Message string `json:"message,omitempty"`
}

// Run records one conscript's attempt at one directive. A run is created
// when the conscript enters active development and closed when the attempt
// reaches a terminal outcome; after closure only the intervention counters
// may be incremented.
type Run struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`
	// ConscriptID is the conscript that executed the run.
	ConscriptID string `json:"conscript_id"`
	// DirectiveID is the directive the run attempted.
	DirectiveID string `json:"directive_id"`
	// Status is the current state of the run.
	Status RunStatus `json:"status"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the run closed, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Interventions counts human touchpoints during the run.
	Interventions int `json:"interventions"`
	// Reworks counts review rejections during the run.
	Reworks int `json:"reworks"`
	// TokensUsed is the number of tokens consumed by this run.
	TokensUsed int64 `json:"tokens_used"`
	// Cost is the total cost in dollars for this run's API usage.
	Cost float64 `json:"cost"`
	// Events is the ordered list of intervention events.
	Events []InterventionEvent `json:"events,omitempty"`
}

// Closed returns true once the run has reached a terminal status.
func (r *Run) Closed() bool {
	return r.Status != RunRunning
}
