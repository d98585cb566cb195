// Package dispatch coordinates the directive plan, the conscript pool, camps,
// workspaces, and the execution engine. It owns the dispatch loop that turns
// ready directives into running sessions.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/olongjohnson/SweatShop-sub000/internal/camp"
	"github.com/olongjohnson/SweatShop-sub000/internal/engine"
	"github.com/olongjohnson/SweatShop-sub000/internal/fsm"
	"github.com/olongjohnson/SweatShop-sub000/internal/plan"
	"github.com/olongjohnson/SweatShop-sub000/internal/workspace"
	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// Notifier surfaces events that need human attention.
type Notifier interface {
	Notify(title, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(title, message string) {}

// Workspaces is the subset of workspace.Manager the orchestrator needs.
type Workspaces interface {
	Create(conscriptID string) (*workspace.Workspace, error)
	Destroy(conscriptID string) error
	Merge(branch string, strategy workspace.MergeStrategy, message string) (*workspace.MergeResult, error)
	PathFor(conscriptID string) string
	SharedPath() string
}

// Config controls orchestrator behavior.
type Config struct {
	// PollInterval is how often the dispatch loop re-checks for work.
	PollInterval time.Duration
	// SharedCamps allows multiple conscripts per camp, up to MaxPerCamp.
	SharedCamps bool
	// MaxPerCamp caps occupancy per camp when camps are shared.
	MaxPerCamp int
	// MergeStrategy is how approved branches land on the base branch.
	MergeStrategy workspace.MergeStrategy
}

// Orchestrator drives directives through conscripts from backlog to merge.
type Orchestrator struct {
	plan       *plan.ExecutionPlan
	pool       *camp.Pool
	workspaces Workspaces
	store      Store
	engine     engine.Engine
	notifier   Notifier
	cfg        Config
	log        zerolog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	kick    chan struct{}
	done    chan struct{}
}

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetDirective(id string) (*models.Directive, error)
	UpdateDirective(d *models.Directive) error
	SetDirectiveStatus(id string, status models.DirectiveStatus) (*models.Directive, error)
	ListDirectives(status *models.DirectiveStatus) ([]models.Directive, error)
	CreateDirective(d *models.Directive) error

	GetConscript(id string) (*models.Conscript, error)
	UpdateConscript(c *models.Conscript) error
	SetConscriptStatus(id string, status models.ConscriptStatus) (*models.Conscript, error)
	ListConscripts(status *models.ConscriptStatus) ([]models.Conscript, error)

	CreateRun(r *models.Run) error
	GetOpenRun(conscriptID string) (*models.Run, error)
	CloseRun(id string, status models.RunStatus) error
	AddRunUsage(id string, tokens int64, cost float64) error
	RecordRunEvent(id string, event models.InterventionEvent) error
}

// New creates an orchestrator over the given collaborators.
func New(p *plan.ExecutionPlan, pool *camp.Pool, ws Workspaces, store Store, eng engine.Engine, notifier Notifier, cfg Config, log zerolog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.MaxPerCamp <= 0 {
		cfg.MaxPerCamp = 1
	}
	if cfg.MergeStrategy == "" {
		cfg.MergeStrategy = workspace.MergeSquash
	}
	return &Orchestrator{
		plan:       p,
		pool:       pool,
		workspaces: ws,
		store:      store,
		engine:     eng,
		notifier:   notifier,
		cfg:        cfg,
		log:        log.With().Str("component", "dispatch").Logger(),
		kick:       make(chan struct{}, 1),
	}
}

// LoadDirectives persists new directives and enqueues everything into the
// plan. Directives already merged are marked completed so their dependents
// can run. Cycle participants are reported and scheduled in the first batch.
func (o *Orchestrator) LoadDirectives(directives []models.Directive) error {
	for i := range directives {
		d := &directives[i]
		existing, err := o.store.GetDirective(d.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := o.store.CreateDirective(d); err != nil {
				return err
			}
		} else {
			directives[i] = *existing
		}
	}

	refs := make([]*models.Directive, len(directives))
	for i := range directives {
		refs[i] = &directives[i]
	}
	cycles := o.plan.Enqueue(refs)
	if len(cycles) > 0 {
		o.log.Warn().Strs("directives", cycles).Msg("dependency cycle detected, participants will not schedule cleanly")
		o.notifier.Notify("Dependency cycle", fmt.Sprintf("directives form a cycle: %v", cycles))
	}

	for _, d := range directives {
		if d.Status == models.DirectiveMerged {
			o.plan.MarkCompleted(d.ID)
		}
	}
	return nil
}

// Start launches the dispatch loop. It returns immediately; dispatching
// happens on a background goroutine until Stop or context cancellation.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("orchestrator already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancel = cancel
	o.done = make(chan struct{})
	o.mu.Unlock()

	go o.loop(ctx)
	o.log.Info().Dur("poll_interval", o.cfg.PollInterval).Msg("dispatch loop started")
	return nil
}

// Stop halts the dispatch loop. Running sessions are not interrupted.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.cancel
	done := o.done
	o.mu.Unlock()

	cancel()
	<-done
	o.log.Info().Msg("dispatch loop stopped")
}

func (o *Orchestrator) loop(ctx context.Context) {
	defer close(o.done)

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	o.dispatchPass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.dispatchPass(ctx)
		case <-o.kick:
			o.dispatchPass(ctx)
		}
	}
}

// wake nudges the loop to run a pass without waiting for the ticker.
func (o *Orchestrator) wake() {
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// dispatchPass matches ready directives with idle conscripts and available
// camps until one of the three runs out. A failed dispatch stops the pass
// and leaves the directive eligible for the next one.
func (o *Orchestrator) dispatchPass(ctx context.Context) {
	for {
		directive := o.plan.Dequeue()
		if directive == nil {
			return
		}

		conscript, err := o.nextIdleConscript()
		if err != nil {
			o.log.Error().Err(err).Msg("list conscripts failed")
			return
		}
		if conscript == nil {
			return
		}

		leased, err := o.claimCamp(conscript.ID)
		if err != nil {
			o.log.Error().Err(err).Msg("camp claim failed")
			return
		}
		if leased == nil {
			o.log.Debug().Str("directive", directive.ID).Msg("no camp available, deferring")
			return
		}

		if err := o.dispatch(ctx, directive, conscript, leased); err != nil {
			o.log.Error().
				Err(err).
				Str("directive", directive.ID).
				Str("conscript", conscript.ID).
				Msg("dispatch failed")
			return
		}
		o.plan.MarkDispatched(directive.ID)
	}
}

func (o *Orchestrator) nextIdleConscript() (*models.Conscript, error) {
	idle := models.ConscriptIdle
	conscripts, err := o.store.ListConscripts(&idle)
	if err != nil {
		return nil, err
	}
	if len(conscripts) == 0 {
		return nil, nil
	}
	return &conscripts[0], nil
}

func (o *Orchestrator) claimCamp(conscriptID string) (*models.Camp, error) {
	if o.cfg.SharedCamps {
		return o.pool.ClaimShared(conscriptID, o.cfg.MaxPerCamp)
	}
	return o.pool.Claim(conscriptID)
}

// dispatch walks a conscript through assignment, branch provisioning, and
// session start. Any failure rolls the conscript back to idle and releases
// the camp so the directive stays eligible.
func (o *Orchestrator) dispatch(ctx context.Context, d *models.Directive, c *models.Conscript, leased *models.Camp) error {
	rollback := func(stage string, cause error) error {
		if err := o.pool.Release(leased.Alias, c.ID); err != nil {
			o.log.Error().Err(err).Str("camp", leased.Alias).Msg("camp release failed during rollback")
		}
		// Exit through the lifecycle table: active states leave via
		// error, and error leaves to idle.
		if cur, err := o.store.GetConscript(c.ID); err == nil && cur != nil && cur.Status != models.ConscriptIdle {
			if cur.Status != models.ConscriptError {
				if err := o.transition(c.ID, models.ConscriptError); err != nil {
					o.log.Error().Err(err).Str("conscript", c.ID).Msg("conscript rollback failed")
				}
			}
			if err := o.transition(c.ID, models.ConscriptIdle); err != nil {
				o.log.Error().Err(err).Str("conscript", c.ID).Msg("conscript rollback failed")
			}
		}
		c.Status = models.ConscriptIdle
		c.DirectiveID = ""
		c.CampAlias = ""
		c.BranchName = ""
		if err := o.store.UpdateConscript(c); err != nil {
			o.log.Error().Err(err).Str("conscript", c.ID).Msg("conscript reset failed during rollback")
		}
		return fmt.Errorf("%s: %w", stage, cause)
	}

	if err := o.transition(c.ID, models.ConscriptAssigned); err != nil {
		return rollback("assign", err)
	}

	c.DirectiveID = d.ID
	c.CampAlias = leased.Alias
	c.Status = models.ConscriptAssigned
	if err := o.store.UpdateConscript(c); err != nil {
		return rollback("persist assignment", err)
	}

	if err := o.transition(c.ID, models.ConscriptBranching); err != nil {
		return rollback("branching", err)
	}

	// Worktree isolation is best effort: when provisioning fails the
	// conscript works directly in the shared project directory instead.
	workingDir := ""
	branch := ""
	if ws, err := o.workspaces.Create(c.ID); err != nil {
		workingDir = o.workspaces.SharedPath()
		o.log.Warn().
			Err(err).
			Str("conscript", c.ID).
			Str("dir", workingDir).
			Msg("workspace creation failed, falling back to shared project directory")
	} else {
		workingDir = ws.Path
		branch = ws.Branch
	}
	c.Status = models.ConscriptBranching
	c.BranchName = branch
	if err := o.store.UpdateConscript(c); err != nil {
		return rollback("persist branch", err)
	}

	if err := o.transition(c.ID, models.ConscriptDeveloping); err != nil {
		return rollback("developing", err)
	}

	d.Status = models.DirectiveInProgress
	d.AssignedTo = c.ID
	if err := o.store.UpdateDirective(d); err != nil {
		return rollback("persist directive", err)
	}

	run := &models.Run{
		ID:          uuid.NewString(),
		ConscriptID: c.ID,
		DirectiveID: d.ID,
		Status:      models.RunRunning,
		StartedAt:   time.Now(),
	}
	if err := o.store.CreateRun(run); err != nil {
		return rollback("create run", err)
	}

	if err := o.engine.Start(ctx, engine.StartRequest{
		ConscriptID: c.ID,
		DirectiveID: d.ID,
		CampAlias:   leased.Alias,
		BranchName:  branch,
		WorkingDir:  workingDir,
		Prompt:      directivePrompt(d),
	}); err != nil {
		if cerr := o.store.CloseRun(run.ID, models.RunCancelled); cerr != nil {
			o.log.Error().Err(cerr).Str("run", run.ID).Msg("close run failed during rollback")
		}
		return rollback("start session", err)
	}

	o.log.Info().
		Str("directive", d.ID).
		Str("conscript", c.ID).
		Str("camp", leased.Alias).
		Str("branch", branch).
		Msg("directive dispatched")
	return nil
}

func directivePrompt(d *models.Directive) string {
	if d.Description == "" {
		return d.Title
	}
	return d.Title + "\n\n" + d.Description
}

// transition validates an FSM edge and persists the new status.
func (o *Orchestrator) transition(conscriptID string, to models.ConscriptStatus) error {
	c, err := o.store.GetConscript(conscriptID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("conscript %s not found", conscriptID)
	}
	if err := fsm.Check(c.Status, to); err != nil {
		return err
	}
	_, err = o.store.SetConscriptStatus(conscriptID, to)
	return err
}

// HandleEngineEvent reacts to session progress. It implements
// engine.EventSink.
func (o *Orchestrator) HandleEngineEvent(ev engine.Event) {
	switch ev.Type {
	case engine.EventWorkComplete:
		o.onWorkComplete(ev)
	case engine.EventNeedsInput:
		o.onNeedsInput(ev)
	case engine.EventFailed:
		o.onFailed(ev)
	case engine.EventChatMessage:
		o.log.Debug().Str("conscript", ev.ConscriptID).Str("message", ev.Message).Msg("session chat")
	case engine.EventStatusChanged:
		o.log.Debug().Str("conscript", ev.ConscriptID).Str("message", ev.Message).Msg("session status")
	}
}

func (o *Orchestrator) onWorkComplete(ev engine.Event) {
	if err := o.transition(ev.ConscriptID, models.ConscriptQAReady); err != nil {
		o.log.Error().Err(err).Str("conscript", ev.ConscriptID).Msg("qa_ready transition failed")
		return
	}
	if _, err := o.store.SetDirectiveStatus(ev.DirectiveID, models.DirectiveQAReview); err != nil {
		o.log.Error().Err(err).Str("directive", ev.DirectiveID).Msg("qa_review status failed")
	}
	o.recordUsage(ev)
	o.notifier.Notify("Ready for QA", fmt.Sprintf("conscript %s finished directive %s", ev.ConscriptID, ev.DirectiveID))
}

func (o *Orchestrator) onNeedsInput(ev engine.Event) {
	if err := o.transition(ev.ConscriptID, models.ConscriptNeedsInput); err != nil {
		o.log.Error().Err(err).Str("conscript", ev.ConscriptID).Msg("needs_input transition failed")
		return
	}
	if run, err := o.store.GetOpenRun(ev.ConscriptID); err == nil && run != nil {
		if err := o.store.RecordRunEvent(run.ID, models.InterventionEvent{
			At:      ev.At,
			Kind:    models.InterventionQuestion,
			Message: ev.Message,
		}); err != nil {
			o.log.Error().Err(err).Str("run", run.ID).Msg("record question failed")
		}
	}
	o.notifier.Notify("Input needed", fmt.Sprintf("conscript %s asks: %s", ev.ConscriptID, ev.Message))
}

func (o *Orchestrator) onFailed(ev engine.Event) {
	if err := o.transition(ev.ConscriptID, models.ConscriptError); err != nil {
		o.log.Error().Err(err).Str("conscript", ev.ConscriptID).Msg("error transition failed")
	}
	if run, err := o.store.GetOpenRun(ev.ConscriptID); err == nil && run != nil {
		o.recordUsage(ev)
		if err := o.store.CloseRun(run.ID, models.RunFailed); err != nil {
			o.log.Error().Err(err).Str("run", run.ID).Msg("close run failed")
		}
	}
	o.notifier.Notify("Session failed", fmt.Sprintf("conscript %s on directive %s: %s", ev.ConscriptID, ev.DirectiveID, ev.Message))
}

// recordUsage stamps session token and cost totals onto the open run.
// Terminal events carry cumulative usage, so this runs at most once per run.
func (o *Orchestrator) recordUsage(ev engine.Event) {
	if ev.TokensUsed == 0 && ev.Cost == 0 {
		return
	}
	run, err := o.store.GetOpenRun(ev.ConscriptID)
	if err != nil || run == nil {
		return
	}
	if err := o.store.AddRunUsage(run.ID, ev.TokensUsed, ev.Cost); err != nil {
		o.log.Error().Err(err).Str("run", run.ID).Msg("record usage failed")
	}
}

// Answer relays a human answer to a blocked conscript and resumes it.
func (o *Orchestrator) Answer(conscriptID, text string) error {
	c, err := o.store.GetConscript(conscriptID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("conscript %s not found", conscriptID)
	}
	if c.Status != models.ConscriptNeedsInput {
		return fmt.Errorf("conscript %s is %s, not waiting for input", conscriptID, c.Status)
	}

	if err := o.engine.HandleHumanMessage(conscriptID, text); err != nil {
		return err
	}
	if run, err := o.store.GetOpenRun(conscriptID); err == nil && run != nil {
		if err := o.store.RecordRunEvent(run.ID, models.InterventionEvent{
			At:      time.Now(),
			Kind:    models.InterventionAnswer,
			Message: text,
		}); err != nil {
			o.log.Error().Err(err).Str("run", run.ID).Msg("record answer failed")
		}
	}
	return o.transition(conscriptID, models.ConscriptDeveloping)
}

// Approve accepts a conscript's finished work: the branch is merged, the
// directive completes, and the conscript returns to the idle pool. A merge
// conflict parks the conscript in error and leaves the branch intact for
// manual resolution.
func (o *Orchestrator) Approve(conscriptID string) error {
	c, err := o.store.GetConscript(conscriptID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("conscript %s not found", conscriptID)
	}
	if c.Status != models.ConscriptQAReady {
		return fmt.Errorf("conscript %s is %s, nothing to approve", conscriptID, c.Status)
	}

	if err := o.transition(conscriptID, models.ConscriptMerging); err != nil {
		return err
	}

	message := fmt.Sprintf("Land directive %s (%s)", c.DirectiveID, c.BranchName)
	res, err := o.workspaces.Merge(c.BranchName, o.cfg.MergeStrategy, message)
	if err != nil {
		if terr := o.transition(conscriptID, models.ConscriptError); terr != nil {
			o.log.Error().Err(terr).Str("conscript", conscriptID).Msg("error transition failed")
		}
		return fmt.Errorf("merge %s: %w", c.BranchName, err)
	}
	if !res.Merged {
		if terr := o.transition(conscriptID, models.ConscriptError); terr != nil {
			o.log.Error().Err(terr).Str("conscript", conscriptID).Msg("error transition failed")
		}
		o.notifier.Notify("Merge conflict", fmt.Sprintf("branch %s conflicts in %v", c.BranchName, res.Conflicts))
		return fmt.Errorf("merge %s conflicted: %v", c.BranchName, res.Conflicts)
	}

	if _, err := o.store.SetDirectiveStatus(c.DirectiveID, models.DirectiveMerged); err != nil {
		return err
	}
	o.plan.MarkCompleted(c.DirectiveID)

	if run, err := o.store.GetOpenRun(conscriptID); err == nil && run != nil {
		if err := o.store.CloseRun(run.ID, models.RunCompleted); err != nil {
			o.log.Error().Err(err).Str("run", run.ID).Msg("close run failed")
		}
	}

	o.releaseConscript(c)
	o.log.Info().Str("directive", c.DirectiveID).Str("conscript", conscriptID).Msg("directive merged")
	o.wake()
	return nil
}

// Reject sends a conscript's work back with feedback. The session restarts
// against the same branch, so prior work is preserved.
func (o *Orchestrator) Reject(ctx context.Context, conscriptID, feedback string) error {
	c, err := o.store.GetConscript(conscriptID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("conscript %s not found", conscriptID)
	}
	if c.Status != models.ConscriptQAReady {
		return fmt.Errorf("conscript %s is %s, nothing to reject", conscriptID, c.Status)
	}

	if err := o.transition(conscriptID, models.ConscriptRework); err != nil {
		return err
	}

	if run, err := o.store.GetOpenRun(conscriptID); err == nil && run != nil {
		if err := o.store.RecordRunEvent(run.ID, models.InterventionEvent{
			At:      time.Now(),
			Kind:    models.InterventionRework,
			Message: feedback,
		}); err != nil {
			o.log.Error().Err(err).Str("run", run.ID).Msg("record rework failed")
		}
	}

	d, err := o.store.GetDirective(c.DirectiveID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("directive %s not found", c.DirectiveID)
	}
	if _, err := o.store.SetDirectiveStatus(d.ID, models.DirectiveInProgress); err != nil {
		return err
	}

	prompt := fmt.Sprintf("%s\n\nYour previous attempt was rejected in review. Address this feedback:\n%s", directivePrompt(d), feedback)
	if err := o.engine.Start(ctx, engine.StartRequest{
		ConscriptID: c.ID,
		DirectiveID: d.ID,
		CampAlias:   c.CampAlias,
		BranchName:  c.BranchName,
		WorkingDir:  o.workspaces.PathFor(c.ID),
		Prompt:      prompt,
	}); err != nil {
		return fmt.Errorf("restart session: %w", err)
	}

	return o.transition(conscriptID, models.ConscriptDeveloping)
}

// StopConscript tears down a conscript's session and resources and parks it
// in error for triage. The directive stays assigned until scrapped or
// re-planned by a human.
func (o *Orchestrator) StopConscript(conscriptID string) error {
	c, err := o.store.GetConscript(conscriptID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("conscript %s not found", conscriptID)
	}

	if err := o.engine.Stop(conscriptID); err != nil {
		o.log.Debug().Err(err).Str("conscript", conscriptID).Msg("no session to stop")
	}
	if run, err := o.store.GetOpenRun(conscriptID); err == nil && run != nil {
		if err := o.store.CloseRun(run.ID, models.RunCancelled); err != nil {
			o.log.Error().Err(err).Str("run", run.ID).Msg("close run failed")
		}
	}
	if c.CampAlias != "" {
		if err := o.pool.Release(c.CampAlias, conscriptID); err != nil {
			o.log.Error().Err(err).Str("camp", c.CampAlias).Msg("camp release failed")
		}
	}
	if err := o.workspaces.Destroy(conscriptID); err != nil {
		o.log.Error().Err(err).Str("conscript", conscriptID).Msg("workspace destroy failed")
	}

	if c.Status != models.ConscriptError {
		if _, err := o.store.SetConscriptStatus(conscriptID, models.ConscriptError); err != nil {
			return err
		}
	}
	return nil
}

// Scrap abandons an errored conscript's directive and returns the conscript
// to the idle pool. The directive is marked rejected and will not schedule
// again; its dependents stay blocked.
func (o *Orchestrator) Scrap(conscriptID string) error {
	c, err := o.store.GetConscript(conscriptID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("conscript %s not found", conscriptID)
	}
	if c.Status != models.ConscriptError {
		return fmt.Errorf("conscript %s is %s, only errored conscripts can be scrapped", conscriptID, c.Status)
	}

	if c.DirectiveID != "" {
		if _, err := o.store.SetDirectiveStatus(c.DirectiveID, models.DirectiveRejected); err != nil {
			return err
		}
	}
	o.releaseConscript(c)
	o.wake()
	return nil
}

// releaseConscript frees the camp and workspace and returns the conscript to
// idle with its assignment cleared.
func (o *Orchestrator) releaseConscript(c *models.Conscript) {
	if c.CampAlias != "" {
		if err := o.pool.Release(c.CampAlias, c.ID); err != nil {
			o.log.Error().Err(err).Str("camp", c.CampAlias).Msg("camp release failed")
		}
	}
	if err := o.workspaces.Destroy(c.ID); err != nil {
		o.log.Error().Err(err).Str("conscript", c.ID).Msg("workspace destroy failed")
	}

	// Callers release from merging or error, both of which have an idle
	// edge in the lifecycle table.
	if err := o.transition(c.ID, models.ConscriptIdle); err != nil {
		o.log.Error().Err(err).Str("conscript", c.ID).Msg("idle transition failed")
	}
	c.Status = models.ConscriptIdle
	c.DirectiveID = ""
	c.CampAlias = ""
	c.BranchName = ""
	if err := o.store.UpdateConscript(c); err != nil {
		o.log.Error().Err(err).Str("conscript", c.ID).Msg("conscript reset failed")
	}
}

// Status summarizes the plan and loop state.
type Status struct {
	Running    bool
	Total      int
	Pending    int
	InProgress int
	Completed  int
}

// GetStatus reports overall progress.
func (o *Orchestrator) GetStatus() Status {
	o.mu.Lock()
	running := o.running
	o.mu.Unlock()

	ps := o.plan.Status()
	return Status{
		Running:    running,
		Total:      ps.Total,
		Pending:    ps.Pending,
		InProgress: ps.InProgress,
		Completed:  ps.Completed,
	}
}

// Verify Orchestrator implements the engine sink at compile time.
var _ engine.EventSink = (*Orchestrator)(nil)
