// Package fsm enforces the conscript lifecycle state machine.
//
// Every conscript status mutation in the system must go through Apply so an
// illegal transition fails before any field changes.
package fsm

import (
	"fmt"
	"time"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// transitions maps each status to the statuses it may move to.
var transitions = map[models.ConscriptStatus][]models.ConscriptStatus{
	models.ConscriptIdle:         {models.ConscriptAssigned},
	models.ConscriptAssigned:     {models.ConscriptBranching, models.ConscriptError},
	models.ConscriptBranching:    {models.ConscriptDeveloping, models.ConscriptError},
	models.ConscriptDeveloping:   {models.ConscriptNeedsInput, models.ConscriptProvisioning, models.ConscriptQAReady, models.ConscriptError},
	models.ConscriptNeedsInput:   {models.ConscriptDeveloping},
	models.ConscriptProvisioning: {models.ConscriptQAReady, models.ConscriptError},
	models.ConscriptQAReady:      {models.ConscriptMerging, models.ConscriptRework},
	models.ConscriptMerging:      {models.ConscriptIdle, models.ConscriptError},
	models.ConscriptRework:       {models.ConscriptDeveloping, models.ConscriptError},
	models.ConscriptError:        {models.ConscriptIdle, models.ConscriptDeveloping, models.ConscriptProvisioning},
}

// activeStates are statuses where the conscript is busy and must not be
// selected for a new assignment. A conscript found in one of these at
// startup has lost its backing process and is forced to error.
var activeStates = map[models.ConscriptStatus]bool{
	models.ConscriptAssigned:     true,
	models.ConscriptBranching:    true,
	models.ConscriptDeveloping:   true,
	models.ConscriptProvisioning: true,
	models.ConscriptRework:       true,
	models.ConscriptMerging:      true,
}

// interruptStates are statuses requiring human attention. Entering one must
// trigger a notification side effect.
var interruptStates = map[models.ConscriptStatus]bool{
	models.ConscriptQAReady:    true,
	models.ConscriptNeedsInput: true,
	models.ConscriptError:      true,
}

// InvalidTransitionError reports an attempted transition that the lifecycle
// table does not allow. Callers should treat it as a programming or ordering
// error, not a retryable condition.
type InvalidTransitionError struct {
	From models.ConscriptStatus
	To   models.ConscriptStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid conscript transition: %s -> %s", e.From, e.To)
}

// CanTransition returns true if the lifecycle table allows moving from one
// status to another.
func CanTransition(from, to models.ConscriptStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Check validates a transition without applying it.
func Check(from, to models.ConscriptStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// Apply transitions the conscript to the target status after validating the
// move. On an invalid transition the conscript is left untouched.
func Apply(c *models.Conscript, to models.ConscriptStatus) error {
	if err := Check(c.Status, to); err != nil {
		return err
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	return nil
}

// IsActive returns true if the status means the conscript is busy.
func IsActive(s models.ConscriptStatus) bool {
	return activeStates[s]
}

// IsInterrupt returns true if the status requires human attention.
func IsInterrupt(s models.ConscriptStatus) bool {
	return interruptStates[s]
}

// Targets returns the statuses reachable from the given status. The returned
// slice must not be modified.
func Targets(from models.ConscriptStatus) []models.ConscriptStatus {
	return transitions[from]
}

// RecoverStartup returns the status a persisted conscript should hold after
// a process restart. Conscripts in an active state are forced to error
// because their backing execution process is assumed lost; the second return
// reports whether a force happened so the caller can log and notify.
func RecoverStartup(s models.ConscriptStatus) (models.ConscriptStatus, bool) {
	if activeStates[s] {
		return models.ConscriptError, true
	}
	return s, false
}
