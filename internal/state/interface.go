// Package state provides SQLite-based persistence for the orchestrator.
package state

import (
	"io"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// DirectiveStore handles directive persistence operations.
type DirectiveStore interface {
	CreateDirective(d *models.Directive) error
	GetDirective(id string) (*models.Directive, error)
	UpdateDirective(d *models.Directive) error
	SetDirectiveStatus(id string, status models.DirectiveStatus) (*models.Directive, error)
	ListDirectives(status *models.DirectiveStatus) ([]models.Directive, error)
	DeleteDirective(id string) error
}

// ConscriptStore handles conscript persistence operations.
type ConscriptStore interface {
	CreateConscript(c *models.Conscript) error
	GetConscript(id string) (*models.Conscript, error)
	UpdateConscript(c *models.Conscript) error
	SetConscriptStatus(id string, status models.ConscriptStatus) (*models.Conscript, error)
	ListConscripts(status *models.ConscriptStatus) ([]models.Conscript, error)
	DeleteConscript(id string) error
}

// CampStore handles camp persistence operations.
type CampStore interface {
	SaveCamp(c *models.Camp) error
	GetCamp(alias string) (*models.Camp, error)
	ListCamps() ([]models.Camp, error)
	DeleteCamp(alias string) error
}

// RunStore handles run persistence operations.
type RunStore interface {
	CreateRun(r *models.Run) error
	GetRun(id string) (*models.Run, error)
	GetOpenRun(conscriptID string) (*models.Run, error)
	ListRuns(directiveID string) ([]models.Run, error)
	CloseRun(id string, status models.RunStatus) error
	AddRunUsage(id string, tokens int64, cost float64) error
	RecordRunEvent(id string, event models.InterventionEvent) error
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for orchestrator state persistence.
// It composes focused sub-interfaces so components can depend on only the
// operations they need.
type Store interface {
	io.Closer
	Migrator
	DirectiveStore
	ConscriptStore
	CampStore
	RunStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store          = (*DB)(nil)
	_ Migrator       = (*DB)(nil)
	_ DirectiveStore = (*DB)(nil)
	_ ConscriptStore = (*DB)(nil)
	_ CampStore      = (*DB)(nil)
	_ RunStore       = (*DB)(nil)
)
