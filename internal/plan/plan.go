// Package plan builds dependency-ordered execution plans for directives.
//
// A plan partitions a directive set into ordered parallel batches by
// dependency depth. Batches are a scheduling policy, not just a dependency
// constraint: a directive in a later batch is never served before every
// directive in the batch ahead of it has completed, even if its own
// dependencies happen to be satisfied earlier.
package plan

import (
	"sort"
	"sync"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// Status summarizes plan progress.
type Status struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// ExecutionPlan is a directive set partitioned into ordered parallel
// batches. It is rebuilt from scratch on every Enqueue and never mutated in
// place; dispatch and completion tracking live alongside the batches.
type ExecutionPlan struct {
	mu sync.Mutex

	// directives maps directive ID to the directive itself.
	directives map[string]*models.Directive
	// batches holds directive IDs grouped by dependency depth, lowest first.
	batches [][]string
	// depths maps directive ID to its computed batch depth.
	depths map[string]int
	// dispatched tracks directives handed to a conscript.
	dispatched map[string]bool
	// completed tracks directives whose attempt reached a terminal outcome.
	completed map[string]bool
	// cycles lists directive IDs that were revisited during depth
	// computation. Cyclic inputs are a data error; the fallback to depth 0
	// only guarantees termination, so callers should surface these.
	cycles []string
}

// New creates an empty execution plan.
func New() *ExecutionPlan {
	p := &ExecutionPlan{}
	p.reset(nil)
	return p
}

// reset rebuilds all plan state from the given directive set.
// Caller must hold p.mu (or be the constructor).
func (p *ExecutionPlan) reset(directives []*models.Directive) {
	p.directives = make(map[string]*models.Directive, len(directives))
	p.depths = make(map[string]int, len(directives))
	p.dispatched = make(map[string]bool)
	p.completed = make(map[string]bool)
	p.batches = nil
	p.cycles = nil

	for _, d := range directives {
		p.directives[d.ID] = d
	}

	visiting := make(map[string]bool)
	cycleSeen := make(map[string]bool)

	// depth(d) = 0 when no dependency is in the set, else
	// 1 + max(depth(dep)) over in-set dependencies. Memoized, with a
	// visited-set guard: a directive revisited while still being computed
	// is taken as depth 0 so computation always terminates.
	var depth func(id string) int
	depth = func(id string) int {
		if d, ok := p.depths[id]; ok {
			return d
		}
		if visiting[id] {
			if !cycleSeen[id] {
				cycleSeen[id] = true
				p.cycles = append(p.cycles, id)
			}
			return 0
		}
		visiting[id] = true
		defer delete(visiting, id)

		max := -1
		d := p.directives[id]
		for _, depID := range d.DependsOn {
			if depID == id {
				// Self-dependency violates the data model; ignore it.
				if !cycleSeen[id] {
					cycleSeen[id] = true
					p.cycles = append(p.cycles, id)
				}
				continue
			}
			if _, inSet := p.directives[depID]; !inSet {
				// External dependencies are assumed already satisfied.
				continue
			}
			if dd := depth(depID); dd > max {
				max = dd
			}
		}
		result := max + 1
		p.depths[id] = result
		return result
	}

	maxDepth := 0
	for id := range p.directives {
		if d := depth(id); d > maxDepth {
			maxDepth = d
		}
	}

	if len(p.directives) == 0 {
		return
	}

	p.batches = make([][]string, maxDepth+1)
	for id := range p.directives {
		p.batches[p.depths[id]] = append(p.batches[p.depths[id]], id)
	}
	for i := range p.batches {
		sort.Strings(p.batches[i])
	}
}

// Enqueue replaces the plan with a new one built from the given directive
// set, resetting all dispatch and completion tracking. It returns the IDs of
// any directives involved in dependency cycles; callers should report these
// as a data-quality warning rather than silently accepting the degraded
// plan.
func (p *ExecutionPlan) Enqueue(directives []*models.Directive) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset(directives)
	cycles := make([]string, len(p.cycles))
	copy(cycles, p.cycles)
	sort.Strings(cycles)
	return cycles
}

// Dequeue returns the next directive eligible for dispatch, or nil if none.
// A directive is eligible when it sits in the earliest batch that is not yet
// fully completed, has not been dispatched or completed, and all of its
// in-set dependencies are completed. Later batches are never consulted while
// the current one has unfinished directives.
func (p *ExecutionPlan) Dequeue() *models.Directive {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch := p.currentBatchLocked()
	if batch < 0 {
		return nil
	}

	for _, id := range p.batches[batch] {
		if p.dispatched[id] || p.completed[id] {
			continue
		}
		if !p.depsCompletedLocked(id) {
			continue
		}
		return p.directives[id]
	}
	return nil
}

// currentBatchLocked returns the index of the earliest batch with an
// incomplete directive, or -1 if every batch is done.
func (p *ExecutionPlan) currentBatchLocked() int {
	for i, batch := range p.batches {
		for _, id := range batch {
			if !p.completed[id] {
				return i
			}
		}
	}
	return -1
}

// depsCompletedLocked reports whether every in-set dependency of the
// directive is marked completed.
func (p *ExecutionPlan) depsCompletedLocked(id string) bool {
	d := p.directives[id]
	for _, depID := range d.DependsOn {
		if depID == id {
			continue
		}
		if _, inSet := p.directives[depID]; !inSet {
			continue
		}
		if !p.completed[depID] {
			return false
		}
	}
	return true
}

// MarkDispatched records that the directive was handed to a conscript.
func (p *ExecutionPlan) MarkDispatched(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.directives[id]; ok {
		p.dispatched[id] = true
	}
}

// MarkCompleted records that the directive's attempt reached a terminal
// outcome, unblocking dependents and, once its batch drains, the next batch.
func (p *ExecutionPlan) MarkCompleted(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.directives[id]; ok {
		p.completed[id] = true
	}
}

// IsEmpty returns true when every directive in the plan is completed.
func (p *ExecutionPlan) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentBatchLocked() < 0
}

// Status returns counts of total, pending, in-progress, and completed
// directives.
func (p *ExecutionPlan) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Status{Total: len(p.directives)}
	for id := range p.directives {
		switch {
		case p.completed[id]:
			s.Completed++
		case p.dispatched[id]:
			s.InProgress++
		default:
			s.Pending++
		}
	}
	return s
}

// Batches returns the directive IDs grouped by dependency depth, lowest
// depth first. The result is a copy.
func (p *ExecutionPlan) Batches() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]string, len(p.batches))
	for i, batch := range p.batches {
		out[i] = append([]string(nil), batch...)
	}
	return out
}

// Depth returns the batch depth of a directive and whether it is in the
// plan.
func (p *ExecutionPlan) Depth(id string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.depths[id]
	return d, ok
}

// Get returns the directive for an ID, or nil if it is not in the plan.
func (p *ExecutionPlan) Get(id string) *models.Directive {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.directives[id]
}
