package engine

import (
	"fmt"
	"sync"
	"time"
)

// PendingQuestion is a question a conscript asked that awaits a human
// answer.
type PendingQuestion struct {
	ConscriptID string
	DirectiveID string
	Question    string
	AskedAt     time.Time
}

// PendingInputs tracks at most one open question per conscript. A conscript
// that already has an unanswered question cannot raise a second one; the
// session must wait for the first answer.
type PendingInputs struct {
	mu      sync.Mutex
	pending map[string]PendingQuestion
}

// NewPendingInputs creates an empty pending-input ledger.
func NewPendingInputs() *PendingInputs {
	return &PendingInputs{pending: make(map[string]PendingQuestion)}
}

// Ask registers an open question for a conscript. It fails if the conscript
// already has one outstanding.
func (p *PendingInputs) Ask(q PendingQuestion) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.pending[q.ConscriptID]; ok {
		return fmt.Errorf("conscript %s already has an open question: %s", q.ConscriptID, existing.Question)
	}
	p.pending[q.ConscriptID] = q
	return nil
}

// Answer resolves the open question for a conscript and returns it. It fails
// when nothing is pending.
func (p *PendingInputs) Answer(conscriptID string) (PendingQuestion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.pending[conscriptID]
	if !ok {
		return PendingQuestion{}, fmt.Errorf("conscript %s has no open question", conscriptID)
	}
	delete(p.pending, conscriptID)
	return q, nil
}

// Get returns the open question for a conscript, if any.
func (p *PendingInputs) Get(conscriptID string) (PendingQuestion, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.pending[conscriptID]
	return q, ok
}

// Clear drops any open question for a conscript. Used when a session is
// stopped or scrapped while blocked.
func (p *PendingInputs) Clear(conscriptID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, conscriptID)
}

// List returns all open questions.
func (p *PendingInputs) List() []PendingQuestion {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PendingQuestion, 0, len(p.pending))
	for _, q := range p.pending {
		out = append(out, q)
	}
	return out
}
