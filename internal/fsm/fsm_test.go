package fsm

import (
	"errors"
	"testing"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

func TestEveryDeclaredTransitionIsAllowed(t *testing.T) {
	for from, targets := range transitions {
		for _, to := range targets {
			if !CanTransition(from, to) {
				t.Errorf("expected %s -> %s to be allowed", from, to)
			}
		}
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	cases := []struct {
		from models.ConscriptStatus
		to   models.ConscriptStatus
	}{
		{models.ConscriptIdle, models.ConscriptDeveloping},
		{models.ConscriptIdle, models.ConscriptMerging},
		{models.ConscriptRework, models.ConscriptMerging},
		{models.ConscriptQAReady, models.ConscriptIdle},
		{models.ConscriptNeedsInput, models.ConscriptQAReady},
		{models.ConscriptMerging, models.ConscriptDeveloping},
		{models.ConscriptError, models.ConscriptMerging},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
		err := Check(tc.from, tc.to)
		if err == nil {
			t.Fatalf("expected error for %s -> %s", tc.from, tc.to)
		}
		var ite *InvalidTransitionError
		if !errors.As(err, &ite) {
			t.Fatalf("expected InvalidTransitionError, got %T", err)
		}
		if ite.From != tc.from || ite.To != tc.to {
			t.Errorf("error should name source and target: got %v", ite)
		}
	}
}

func TestApplyDoesNotMutateOnFailure(t *testing.T) {
	c := &models.Conscript{ID: "c-1", Status: models.ConscriptIdle}

	if err := Apply(c, models.ConscriptMerging); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if c.Status != models.ConscriptIdle {
		t.Errorf("conscript status mutated on failed transition: %s", c.Status)
	}

	if err := Apply(c, models.ConscriptAssigned); err != nil {
		t.Fatalf("expected valid transition, got %v", err)
	}
	if c.Status != models.ConscriptAssigned {
		t.Errorf("expected status assigned, got %s", c.Status)
	}
	if c.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestRejectThenResumeWalk(t *testing.T) {
	// QA_READY -> REWORK -> DEVELOPING is the review rejection path.
	c := &models.Conscript{ID: "c-1", Status: models.ConscriptQAReady}

	if err := Apply(c, models.ConscriptRework); err != nil {
		t.Fatalf("reject: %v", err)
	}
	// Merging directly from rework must be refused.
	if err := Apply(c, models.ConscriptMerging); err == nil {
		t.Fatal("expected rework -> merging to be rejected")
	}
	if c.Status != models.ConscriptRework {
		t.Errorf("status mutated by rejected transition: %s", c.Status)
	}
	if err := Apply(c, models.ConscriptDeveloping); err != nil {
		t.Fatalf("resume: %v", err)
	}
}

func TestStateClassification(t *testing.T) {
	for _, s := range []models.ConscriptStatus{
		models.ConscriptAssigned, models.ConscriptBranching, models.ConscriptDeveloping,
		models.ConscriptProvisioning, models.ConscriptRework, models.ConscriptMerging,
	} {
		if !IsActive(s) {
			t.Errorf("expected %s to be active", s)
		}
	}
	for _, s := range []models.ConscriptStatus{
		models.ConscriptQAReady, models.ConscriptNeedsInput, models.ConscriptError,
	} {
		if !IsInterrupt(s) {
			t.Errorf("expected %s to be an interrupt state", s)
		}
	}
	if IsActive(models.ConscriptIdle) || IsInterrupt(models.ConscriptIdle) {
		t.Error("idle should be neither active nor interrupt")
	}
}

func TestRecoverStartup(t *testing.T) {
	got, forced := RecoverStartup(models.ConscriptDeveloping)
	if !forced || got != models.ConscriptError {
		t.Errorf("expected developing to be forced to error, got %s forced=%v", got, forced)
	}

	got, forced = RecoverStartup(models.ConscriptIdle)
	if forced || got != models.ConscriptIdle {
		t.Errorf("expected idle to survive restart, got %s forced=%v", got, forced)
	}

	got, forced = RecoverStartup(models.ConscriptError)
	if forced || got != models.ConscriptError {
		t.Errorf("expected error to survive restart, got %s forced=%v", got, forced)
	}

	// qa_ready and needs_input are interrupt states, not active: they survive.
	got, forced = RecoverStartup(models.ConscriptQAReady)
	if forced || got != models.ConscriptQAReady {
		t.Errorf("expected qa_ready to survive restart, got %s forced=%v", got, forced)
	}
}
