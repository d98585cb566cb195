package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// Directive CRUD operations

// CreateDirective inserts a new directive.
func (db *DB) CreateDirective(d *models.Directive) error {
	deps, err := marshalStrings(d.DependsOn)
	if err != nil {
		return fmt.Errorf("encode depends_on: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO directives (id, title, description, status, depends_on, assigned_to, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Title, d.Description, string(d.Status), deps, d.AssignedTo,
		encodeTime(d.CreatedAt), encodeNullableTime(d.CompletedAt))
	if err != nil {
		return fmt.Errorf("create directive: %w", err)
	}
	return nil
}

// GetDirective retrieves a directive by ID. Returns nil if not found.
func (db *DB) GetDirective(id string) (*models.Directive, error) {
	row := db.QueryRow(`
		SELECT id, title, description, status, depends_on, assigned_to, created_at, completed_at
		FROM directives WHERE id = ?
	`, id)
	d, err := scanDirective(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get directive: %w", err)
	}
	return d, nil
}

// UpdateDirective updates all mutable fields of a directive.
func (db *DB) UpdateDirective(d *models.Directive) error {
	deps, err := marshalStrings(d.DependsOn)
	if err != nil {
		return fmt.Errorf("encode depends_on: %w", err)
	}
	_, err = db.Exec(`
		UPDATE directives SET title = ?, description = ?, status = ?, depends_on = ?,
			assigned_to = ?, completed_at = ?
		WHERE id = ?
	`, d.Title, d.Description, string(d.Status), deps, d.AssignedTo,
		encodeNullableTime(d.CompletedAt), d.ID)
	if err != nil {
		return fmt.Errorf("update directive: %w", err)
	}
	return nil
}

// SetDirectiveStatus updates only the status of a directive and returns the
// updated record. A terminal status also stamps completed_at.
func (db *DB) SetDirectiveStatus(id string, status models.DirectiveStatus) (*models.Directive, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid directive status %q", status)
	}
	if status.Terminal() {
		_, err := db.Exec(`
			UPDATE directives SET status = ?, completed_at = ? WHERE id = ?
		`, string(status), encodeTime(time.Now()), id)
		if err != nil {
			return nil, fmt.Errorf("set directive status: %w", err)
		}
	} else {
		_, err := db.Exec("UPDATE directives SET status = ? WHERE id = ?", string(status), id)
		if err != nil {
			return nil, fmt.Errorf("set directive status: %w", err)
		}
	}
	d, err := db.GetDirective(id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("directive %s not found", id)
	}
	return d, nil
}

// DeleteDirective deletes a directive by ID.
func (db *DB) DeleteDirective(id string) error {
	_, err := db.Exec("DELETE FROM directives WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete directive: %w", err)
	}
	return nil
}

// ListDirectives lists all directives, optionally filtered by status.
func (db *DB) ListDirectives(status *models.DirectiveStatus) ([]models.Directive, error) {
	var rows *sql.Rows
	var err error
	if status != nil {
		rows, err = db.Query(`
			SELECT id, title, description, status, depends_on, assigned_to, created_at, completed_at
			FROM directives WHERE status = ? ORDER BY created_at
		`, string(*status))
	} else {
		rows, err = db.Query(`
			SELECT id, title, description, status, depends_on, assigned_to, created_at, completed_at
			FROM directives ORDER BY created_at
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list directives: %w", err)
	}
	defer rows.Close()

	var out []models.Directive
	for rows.Next() {
		d, err := scanDirective(rows)
		if err != nil {
			return nil, fmt.Errorf("scan directive: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDirective(row scanner) (*models.Directive, error) {
	var d models.Directive
	var description, assignedTo, deps, completedAt sql.NullString
	var createdAt string
	err := row.Scan(&d.ID, &d.Title, &description, &d.Status, &deps, &assignedTo, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}
	d.Description = description.String
	d.AssignedTo = assignedTo.String
	d.CreatedAt, _ = decodeTime(createdAt)
	d.CompletedAt = decodeNullableTime(completedAt)
	if deps.Valid && deps.String != "" {
		if err := json.Unmarshal([]byte(deps.String), &d.DependsOn); err != nil {
			return nil, fmt.Errorf("decode depends_on: %w", err)
		}
	}
	return &d, nil
}

// Conscript CRUD operations

// CreateConscript inserts a new conscript.
func (db *DB) CreateConscript(c *models.Conscript) error {
	_, err := db.Exec(`
		INSERT INTO conscripts (id, name, status, directive_id, camp_alias, branch_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, string(c.Status), c.DirectiveID, c.CampAlias, c.BranchName, encodeTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create conscript: %w", err)
	}
	return nil
}

// GetConscript retrieves a conscript by ID. Returns nil if not found.
func (db *DB) GetConscript(id string) (*models.Conscript, error) {
	row := db.QueryRow(`
		SELECT id, name, status, directive_id, camp_alias, branch_name, updated_at
		FROM conscripts WHERE id = ?
	`, id)
	c, err := scanConscript(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conscript: %w", err)
	}
	return c, nil
}

// UpdateConscript updates all mutable fields of a conscript.
func (db *DB) UpdateConscript(c *models.Conscript) error {
	_, err := db.Exec(`
		UPDATE conscripts SET name = ?, status = ?, directive_id = ?, camp_alias = ?,
			branch_name = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, string(c.Status), c.DirectiveID, c.CampAlias, c.BranchName,
		encodeTime(time.Now()), c.ID)
	if err != nil {
		return fmt.Errorf("update conscript: %w", err)
	}
	return nil
}

// SetConscriptStatus updates only the status of a conscript and returns the
// updated record.
func (db *DB) SetConscriptStatus(id string, status models.ConscriptStatus) (*models.Conscript, error) {
	_, err := db.Exec(`
		UPDATE conscripts SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), encodeTime(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("set conscript status: %w", err)
	}
	c, err := db.GetConscript(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("conscript %s not found", id)
	}
	return c, nil
}

// DeleteConscript deletes a conscript by ID.
func (db *DB) DeleteConscript(id string) error {
	_, err := db.Exec("DELETE FROM conscripts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete conscript: %w", err)
	}
	return nil
}

// ListConscripts lists all conscripts, optionally filtered by status.
func (db *DB) ListConscripts(status *models.ConscriptStatus) ([]models.Conscript, error) {
	var rows *sql.Rows
	var err error
	if status != nil {
		rows, err = db.Query(`
			SELECT id, name, status, directive_id, camp_alias, branch_name, updated_at
			FROM conscripts WHERE status = ? ORDER BY id
		`, string(*status))
	} else {
		rows, err = db.Query(`
			SELECT id, name, status, directive_id, camp_alias, branch_name, updated_at
			FROM conscripts ORDER BY id
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list conscripts: %w", err)
	}
	defer rows.Close()

	var out []models.Conscript
	for rows.Next() {
		c, err := scanConscript(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conscript: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanConscript(row scanner) (*models.Conscript, error) {
	var c models.Conscript
	var directiveID, campAlias, branchName sql.NullString
	var updatedAt string
	err := row.Scan(&c.ID, &c.Name, &c.Status, &directiveID, &campAlias, &branchName, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.DirectiveID = directiveID.String
	c.CampAlias = campAlias.String
	c.BranchName = branchName.String
	c.UpdatedAt, _ = decodeTime(updatedAt)
	return &c, nil
}

// Camp persistence

// SaveCamp inserts or replaces a camp record.
func (db *DB) SaveCamp(c *models.Camp) error {
	assignees, err := marshalStrings(c.Assignees)
	if err != nil {
		return fmt.Errorf("encode assignees: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO camps (alias, status, assignees, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(alias) DO UPDATE SET status = excluded.status,
			assignees = excluded.assignees, expires_at = excluded.expires_at
	`, c.Alias, string(c.Status), assignees, encodeNullableTime(c.ExpiresAt))
	if err != nil {
		return fmt.Errorf("save camp: %w", err)
	}
	return nil
}

// GetCamp retrieves a camp by alias. Returns nil if not found.
func (db *DB) GetCamp(alias string) (*models.Camp, error) {
	row := db.QueryRow("SELECT alias, status, assignees, expires_at FROM camps WHERE alias = ?", alias)
	c, err := scanCamp(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get camp: %w", err)
	}
	return c, nil
}

// ListCamps lists all persisted camps.
func (db *DB) ListCamps() ([]models.Camp, error) {
	rows, err := db.Query("SELECT alias, status, assignees, expires_at FROM camps ORDER BY alias")
	if err != nil {
		return nil, fmt.Errorf("list camps: %w", err)
	}
	defer rows.Close()

	var out []models.Camp
	for rows.Next() {
		c, err := scanCamp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan camp: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCamp deletes a camp by alias.
func (db *DB) DeleteCamp(alias string) error {
	_, err := db.Exec("DELETE FROM camps WHERE alias = ?", alias)
	if err != nil {
		return fmt.Errorf("delete camp: %w", err)
	}
	return nil
}

func scanCamp(row scanner) (*models.Camp, error) {
	var c models.Camp
	var assignees, expiresAt sql.NullString
	err := row.Scan(&c.Alias, &c.Status, &assignees, &expiresAt)
	if err != nil {
		return nil, err
	}
	c.ExpiresAt = decodeNullableTime(expiresAt)
	if assignees.Valid && assignees.String != "" {
		if err := json.Unmarshal([]byte(assignees.String), &c.Assignees); err != nil {
			return nil, fmt.Errorf("decode assignees: %w", err)
		}
	}
	return &c, nil
}

// Run CRUD operations

// CreateRun inserts a new run record.
func (db *DB) CreateRun(r *models.Run) error {
	events, err := marshalEvents(r.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO runs (id, conscript_id, directive_id, status, started_at, completed_at,
			interventions, reworks, tokens_used, cost, events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ConscriptID, r.DirectiveID, string(r.Status), encodeTime(r.StartedAt),
		encodeNullableTime(r.CompletedAt), r.Interventions, r.Reworks, r.TokensUsed, r.Cost, events)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil if not found.
func (db *DB) GetRun(id string) (*models.Run, error) {
	row := db.QueryRow(`
		SELECT id, conscript_id, directive_id, status, started_at, completed_at,
			interventions, reworks, tokens_used, cost, events
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// GetOpenRun returns the running run for a conscript, or nil when the
// conscript has no open run.
func (db *DB) GetOpenRun(conscriptID string) (*models.Run, error) {
	row := db.QueryRow(`
		SELECT id, conscript_id, directive_id, status, started_at, completed_at,
			interventions, reworks, tokens_used, cost, events
		FROM runs WHERE conscript_id = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1
	`, conscriptID, string(models.RunRunning))
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open run: %w", err)
	}
	return r, nil
}

// ListRuns lists runs, optionally filtered by directive.
func (db *DB) ListRuns(directiveID string) ([]models.Run, error) {
	var rows *sql.Rows
	var err error
	if directiveID != "" {
		rows, err = db.Query(`
			SELECT id, conscript_id, directive_id, status, started_at, completed_at,
				interventions, reworks, tokens_used, cost, events
			FROM runs WHERE directive_id = ? ORDER BY started_at
		`, directiveID)
	} else {
		rows, err = db.Query(`
			SELECT id, conscript_id, directive_id, status, started_at, completed_at,
				interventions, reworks, tokens_used, cost, events
			FROM runs ORDER BY started_at
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// CloseRun marks a run finished with the given status and stamps
// completed_at.
func (db *DB) CloseRun(id string, status models.RunStatus) error {
	_, err := db.Exec(`
		UPDATE runs SET status = ?, completed_at = ? WHERE id = ?
	`, string(status), encodeTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("close run: %w", err)
	}
	return nil
}

// AddRunUsage adds token and cost usage to a run.
func (db *DB) AddRunUsage(id string, tokens int64, cost float64) error {
	_, err := db.Exec(`
		UPDATE runs SET tokens_used = tokens_used + ?, cost = cost + ? WHERE id = ?
	`, tokens, cost, id)
	if err != nil {
		return fmt.Errorf("add run usage: %w", err)
	}
	return nil
}

// RecordRunEvent appends an intervention event to a run and bumps the
// matching counter.
func (db *DB) RecordRunEvent(id string, event models.InterventionEvent) error {
	r, err := db.GetRun(id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("run %s not found", id)
	}

	r.Events = append(r.Events, event)
	events, err := marshalEvents(r.Events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	switch event.Kind {
	case models.InterventionQuestion:
		r.Interventions++
	case models.InterventionRework:
		r.Reworks++
	}

	_, err = db.Exec(`
		UPDATE runs SET events = ?, interventions = ?, reworks = ? WHERE id = ?
	`, events, r.Interventions, r.Reworks, id)
	if err != nil {
		return fmt.Errorf("record run event: %w", err)
	}
	return nil
}

func scanRun(row scanner) (*models.Run, error) {
	var r models.Run
	var startedAt string
	var completedAt, events sql.NullString
	err := row.Scan(&r.ID, &r.ConscriptID, &r.DirectiveID, &r.Status, &startedAt, &completedAt,
		&r.Interventions, &r.Reworks, &r.TokensUsed, &r.Cost, &events)
	if err != nil {
		return nil, err
	}
	r.StartedAt, _ = decodeTime(startedAt)
	r.CompletedAt = decodeNullableTime(completedAt)
	if events.Valid && events.String != "" {
		if err := json.Unmarshal([]byte(events.String), &r.Events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
	}
	return &r, nil
}

// marshalStrings encodes a string slice as JSON, with nil for empty.
func marshalStrings(ss []string) (any, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func marshalEvents(events []models.InterventionEvent) (any, error) {
	if len(events) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
