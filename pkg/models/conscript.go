package models

import "time"

// ConscriptStatus represents the lifecycle state of a conscript.
// Transitions between statuses are governed by the fsm package; no code
// outside a transition check may mutate a conscript's status.
type ConscriptStatus string

const (
	// ConscriptIdle indicates the conscript has no assigned directive.
	ConscriptIdle ConscriptStatus = "idle"
	// ConscriptAssigned indicates a directive has been handed to the conscript.
	ConscriptAssigned ConscriptStatus = "assigned"
	// ConscriptBranching indicates the conscript's workspace is being prepared.
	ConscriptBranching ConscriptStatus = "branching"
	// ConscriptDeveloping indicates the conscript is actively working.
	ConscriptDeveloping ConscriptStatus = "developing"
	// ConscriptNeedsInput indicates the conscript is blocked on a human answer.
	ConscriptNeedsInput ConscriptStatus = "needs_input"
	// ConscriptProvisioning indicates the conscript is setting up its camp.
	ConscriptProvisioning ConscriptStatus = "provisioning"
	// ConscriptQAReady indicates the conscript finished and awaits review.
	ConscriptQAReady ConscriptStatus = "qa_ready"
	// ConscriptMerging indicates the conscript's branch is being merged.
	ConscriptMerging ConscriptStatus = "merging"
	// ConscriptRework indicates review feedback was returned to the conscript.
	ConscriptRework ConscriptStatus = "rework"
	// ConscriptError indicates the conscript hit a failure needing attention.
	ConscriptError ConscriptStatus = "error"
)

// Valid returns true if the status is a known value.
func (s ConscriptStatus) Valid() bool {
	switch s {
	case ConscriptIdle, ConscriptAssigned, ConscriptBranching, ConscriptDeveloping,
		ConscriptNeedsInput, ConscriptProvisioning, ConscriptQAReady,
		ConscriptMerging, ConscriptRework, ConscriptError:
		return true
	default:
		return false
	}
}

// Conscript represents a long-lived worker that executes directives one at a
// time. Conscripts are created once and reused indefinitely; status is the
// only frequently mutated field.
type Conscript struct {
	// ID is the unique identifier for this conscript.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Status is the current lifecycle state.
	Status ConscriptStatus `json:"status"`
	// DirectiveID is the directive currently assigned, if any.
	// A conscript has at most one in-flight directive.
	DirectiveID string `json:"directive_id,omitempty"`
	// CampAlias is the leased camp, if any.
	CampAlias string `json:"camp_alias,omitempty"`
	// BranchName is the working branch for the current directive, if any.
	BranchName string `json:"branch_name,omitempty"`
	// UpdatedAt is when the conscript record last changed.
	UpdatedAt time.Time `json:"updated_at"`
}
