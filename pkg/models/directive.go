// Package models defines the shared data types for SweatShop.
package models

import "time"

// DirectiveStatus represents the current state of a directive.
type DirectiveStatus string

const (
	// DirectiveBacklog indicates the directive has not been planned yet.
	DirectiveBacklog DirectiveStatus = "backlog"
	// DirectiveReady indicates the directive is eligible for dispatch.
	DirectiveReady DirectiveStatus = "ready"
	// DirectiveInProgress indicates a conscript is working on the directive.
	DirectiveInProgress DirectiveStatus = "in_progress"
	// DirectiveQAReview indicates the work is done and awaiting review.
	DirectiveQAReview DirectiveStatus = "qa_review"
	// DirectiveApproved indicates the work passed review.
	DirectiveApproved DirectiveStatus = "approved"
	// DirectiveMerged indicates the work landed on the base branch.
	DirectiveMerged DirectiveStatus = "merged"
	// DirectiveRejected indicates the work was scrapped.
	DirectiveRejected DirectiveStatus = "rejected"
)

// Valid returns true if the status is a known value.
func (s DirectiveStatus) Valid() bool {
	switch s {
	case DirectiveBacklog, DirectiveReady, DirectiveInProgress,
		DirectiveQAReview, DirectiveApproved, DirectiveMerged,
		DirectiveRejected:
		return true
	default:
		return false
	}
}

// Terminal returns true if the directive has reached an end state.
func (s DirectiveStatus) Terminal() bool {
	return s == DirectiveMerged || s == DirectiveRejected
}

// Directive represents a schedulable unit of work with dependency constraints.
type Directive struct {
	// ID is the unique identifier for this directive.
	ID string `json:"id"`
	// Title is the short description of the directive.
	Title string `json:"title"`
	// Description provides detailed information about the directive.
	Description string `json:"description,omitempty"`
	// Status is the current state of the directive.
	Status DirectiveStatus `json:"status"`
	// DependsOn lists directive IDs that must complete before this one.
	// It must never contain the directive's own ID.
	DependsOn []string `json:"depends_on,omitempty"`
	// AssignedTo is the ID of the conscript working on this directive.
	AssignedTo string `json:"assigned_to,omitempty"`
	// CreatedAt is when the directive was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the directive reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
