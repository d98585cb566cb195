// Package camp manages the pool of leasable execution environments.
package camp

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/olongjohnson/SweatShop-sub000/pkg/models"
)

// Store is the persistence collaborator for camp records. The pool writes
// through on every mutation so restarts see the current lease state.
type Store interface {
	SaveCamp(c *models.Camp) error
	DeleteCamp(alias string) error
}

// CapacityError reports a refused assignment that would push a camp past its
// per-camp capacity. This is a caller error, not a pool error.
type CapacityError struct {
	Alias    string
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("camp %s is at capacity (%d assignees)", e.Alias, e.Capacity)
}

// Pool leases camps to conscripts. In exclusive mode a camp holds one
// conscript; in shared mode up to maxPerCamp conscripts co-locate on one
// camp, and claims prefer the most-occupied camp with spare room to minimize
// fragmentation.
type Pool struct {
	mu    sync.Mutex
	camps map[string]*models.Camp
	// order preserves registration order so exclusive claims are stable.
	order []string
	store Store
	log   zerolog.Logger
}

// NewPool creates an empty pool backed by the given persistence collaborator.
func NewPool(store Store, log zerolog.Logger) *Pool {
	return &Pool{
		camps: make(map[string]*models.Camp),
		store: store,
		log:   log.With().Str("component", "camp-pool").Logger(),
	}
}

// Register adds a camp to the pool, or refreshes a known camp's expiry. A
// previously expired camp that reappears upstream becomes available again if
// it has no assignees.
func (p *Pool) Register(c *models.Camp) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, ok := p.camps[c.Alias]
	if !ok {
		cp := *c
		if cp.Status == "" {
			cp.Status = models.CampAvailable
		}
		p.camps[c.Alias] = &cp
		p.order = append(p.order, c.Alias)
		return p.persistLocked(&cp)
	}

	existing.ExpiresAt = c.ExpiresAt
	if existing.Status == models.CampExpired && len(existing.Assignees) == 0 {
		existing.Status = models.CampAvailable
	}
	return p.persistLocked(existing)
}

// Remove deletes a camp from the pool entirely. Expired camps stay visible
// for audit until removed through this call.
func (p *Pool) Remove(alias string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.camps[alias]
	if !ok {
		return nil
	}
	if len(c.Assignees) > 0 {
		return fmt.Errorf("camp %s still has %d assignees", alias, len(c.Assignees))
	}
	delete(p.camps, alias)
	for i, a := range p.order {
		if a == alias {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	if p.store == nil {
		return nil
	}
	if err := p.store.DeleteCamp(alias); err != nil {
		return fmt.Errorf("delete camp %s: %w", alias, err)
	}
	return nil
}

// Claim leases the first available camp exclusively to the conscript.
// Returns nil (and no error) when no camp is available; resource exhaustion
// is an expected condition the dispatch loop re-polls on.
func (p *Pool) Claim(conscriptID string) (*models.Camp, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, alias := range p.order {
		c := p.camps[alias]
		if c.Status != models.CampAvailable {
			continue
		}
		c.Status = models.CampLeased
		c.Assignees = []string{conscriptID}
		if err := p.persistLocked(c); err != nil {
			return nil, err
		}
		p.log.Debug().Str("camp", alias).Str("conscript", conscriptID).Msg("claimed exclusive")
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

// ClaimShared leases a camp in shared mode. It prefers a leased or available
// camp with occupancy below maxPerCamp, breaking ties toward the camp with
// the most current assignees; an empty camp is used only when no partially
// occupied camp qualifies. Returns nil when no camp has room.
func (p *Pool) ClaimShared(conscriptID string, maxPerCamp int) (*models.Camp, error) {
	if maxPerCamp < 1 {
		return nil, fmt.Errorf("maxPerCamp must be at least 1, got %d", maxPerCamp)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var candidates []*models.Camp
	for _, alias := range p.order {
		c := p.camps[alias]
		if c.Status != models.CampAvailable && c.Status != models.CampLeased {
			continue
		}
		if len(c.Assignees) >= maxPerCamp {
			continue
		}
		if c.HasAssignee(conscriptID) {
			return nil, fmt.Errorf("conscript %s already holds camp %s", conscriptID, c.Alias)
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Most occupied first; registration order is already stable within a
	// stable sort, so equal occupancy keeps pool order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].Assignees) > len(candidates[j].Assignees)
	})

	c := candidates[0]
	c.Assignees = append(c.Assignees, conscriptID)
	c.Status = models.CampLeased
	if err := p.persistLocked(c); err != nil {
		return nil, err
	}
	p.log.Debug().
		Str("camp", c.Alias).
		Str("conscript", conscriptID).
		Int("occupancy", len(c.Assignees)).
		Msg("claimed shared")
	cp := *c
	return &cp, nil
}

// Assign places a conscript on a specific camp, refusing the assignment with
// a CapacityError if the camp is already at maxPerCamp occupants. The pool
// never silently oversubscribes.
func (p *Pool) Assign(alias, conscriptID string, maxPerCamp int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.camps[alias]
	if !ok {
		return fmt.Errorf("camp %s not found", alias)
	}
	if c.Status == models.CampExpired || c.Status == models.CampError {
		return fmt.Errorf("camp %s is %s", alias, c.Status)
	}
	if len(c.Assignees) >= maxPerCamp {
		return &CapacityError{Alias: alias, Capacity: maxPerCamp}
	}
	if c.HasAssignee(conscriptID) {
		return fmt.Errorf("conscript %s already holds camp %s", conscriptID, alias)
	}
	c.Assignees = append(c.Assignees, conscriptID)
	c.Status = models.CampLeased
	return p.persistLocked(c)
}

// Release removes one assignee from a camp. A multi-occupant camp stays
// leased for its remaining holders; the last release makes it available
// again. Releasing an expired camp only drops the assignee.
func (p *Pool) Release(alias, conscriptID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.camps[alias]
	if !ok {
		return fmt.Errorf("camp %s not found", alias)
	}

	kept := c.Assignees[:0]
	for _, id := range c.Assignees {
		if id != conscriptID {
			kept = append(kept, id)
		}
	}
	c.Assignees = kept

	if len(c.Assignees) == 0 && c.Status == models.CampLeased {
		c.Status = models.CampAvailable
		c.Assignees = nil
	}
	p.log.Debug().Str("camp", alias).Str("conscript", conscriptID).Msg("released")
	return p.persistLocked(c)
}

// MarkExpired flags a camp as gone upstream. Expired camps are excluded from
// claims and co-location preference but remain listed for audit.
func (p *Pool) MarkExpired(alias string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.camps[alias]
	if !ok {
		return fmt.Errorf("camp %s not found", alias)
	}
	c.Status = models.CampExpired
	p.log.Warn().Str("camp", alias).Msg("camp expired upstream")
	return p.persistLocked(c)
}

// Get returns a copy of the camp with the given alias, or nil.
func (p *Pool) Get(alias string) *models.Camp {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.camps[alias]
	if !ok {
		return nil
	}
	cp := *c
	cp.Assignees = append([]string(nil), c.Assignees...)
	return &cp
}

// List returns copies of all camps in registration order.
func (p *Pool) List() []*models.Camp {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*models.Camp, 0, len(p.order))
	for _, alias := range p.order {
		c := p.camps[alias]
		cp := *c
		cp.Assignees = append([]string(nil), c.Assignees...)
		out = append(out, &cp)
	}
	return out
}

// Aliases returns the aliases of all registered camps.
func (p *Pool) Aliases() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

func (p *Pool) persistLocked(c *models.Camp) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.SaveCamp(c); err != nil {
		return fmt.Errorf("persist camp %s: %w", c.Alias, err)
	}
	return nil
}
