package state

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/olongjohnson/SweatShop-sub000/internal/fsm"
	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// RecoveredConscript describes a conscript whose in-flight work was lost to
// a restart and who was therefore forced into the error state.
type RecoveredConscript struct {
	ConscriptID string
	DirectiveID string
	WasStatus   models.ConscriptStatus
}

// RecoveryManager reconciles persisted conscript state on startup.
// Conscripts persisted mid-activity cannot have survived the restart, so
// they are forced to error for human triage. Resting and interrupt states
// are preserved as-is.
type RecoveryManager struct {
	store ConscriptStore
	log   zerolog.Logger
}

// NewRecoveryManager creates a RecoveryManager over the given store.
func NewRecoveryManager(store ConscriptStore, log zerolog.Logger) *RecoveryManager {
	return &RecoveryManager{
		store: store,
		log:   log.With().Str("component", "recovery").Logger(),
	}
}

// Recover scans all persisted conscripts and forces those found in active
// states to error. It returns the conscripts that were forced so callers can
// surface a notification per recovered worker.
func (rm *RecoveryManager) Recover() ([]RecoveredConscript, error) {
	conscripts, err := rm.store.ListConscripts(nil)
	if err != nil {
		return nil, fmt.Errorf("list conscripts: %w", err)
	}

	var recovered []RecoveredConscript
	for _, c := range conscripts {
		next, forced := fsm.RecoverStartup(c.Status)
		if !forced {
			continue
		}

		if _, err := rm.store.SetConscriptStatus(c.ID, next); err != nil {
			return recovered, fmt.Errorf("force conscript %s to %s: %w", c.ID, next, err)
		}
		rm.log.Warn().
			Str("conscript", c.ID).
			Str("directive", c.DirectiveID).
			Str("was", string(c.Status)).
			Msg("conscript was mid-activity at shutdown, forced to error")

		recovered = append(recovered, RecoveredConscript{
			ConscriptID: c.ID,
			DirectiveID: c.DirectiveID,
			WasStatus:   c.Status,
		})
	}

	return recovered, nil
}
