package memory

import (
	"context"
	"fmt"
	"time"

	"faithresponders.org/internal/escalation"
	"faithresponders.org/internal/fault"
)

// EscalationStore implements escalation.Store over the shared in-memory
// state.
type EscalationStore struct {
	s *Store
}

func (es *EscalationStore) Create(_ context.Context, e *escalation.Escalation) error {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()
	es.s.escalations[e.ID] = clone(e)
	return nil
}

func (es *EscalationStore) Find(_ context.Context, id string) (*escalation.Escalation, error) {
	es.s.mu.RLock()
	defer es.s.mu.RUnlock()
	e, ok := es.s.escalations[id]
	if !ok {
		return nil, fmt.Errorf("%w: escalation %s", fault.ErrNotFound, id)
	}
	return clone(e), nil
}

func (es *EscalationStore) List(_ context.Context, f escalation.Filter) ([]*escalation.Escalation, error) {
	es.s.mu.RLock()
	defer es.s.mu.RUnlock()
	out := make([]*escalation.Escalation, 0, len(es.s.escalations))
	for _, e := range es.s.escalations {
		if f.WorkgroupID != "" && e.WorkgroupID != f.WorkgroupID {
			continue
		}
		if f.CenterID != "" && e.CenterID != f.CenterID {
			continue
		}
		if f.GroupID != "" && e.GroupID != f.GroupID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		out = append(out, clone(e))
	}
	sortNewestFirst(out, func(e *escalation.Escalation) string { return e.ID })
	if n := clampLimit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (es *EscalationStore) SetStatus(_ context.Context, id string, status escalation.Status, assignedTo string) error {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()
	e, ok := es.s.escalations[id]
	if !ok {
		return fmt.Errorf("%w: escalation %s", fault.ErrNotFound, id)
	}
	e.Status = status
	if assignedTo != "" {
		e.AssignedTo = assignedTo
	}
	e.UpdatedAt = es.s.now().UTC()
	return nil
}

func (es *EscalationStore) Resolve(_ context.Context, id, resolution string, at time.Time) error {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()
	e, ok := es.s.escalations[id]
	if !ok {
		return fmt.Errorf("%w: escalation %s", fault.ErrNotFound, id)
	}
	e.Status = escalation.StatusResolved
	e.Resolution = resolution
	resolved := at
	e.ResolvedAt = &resolved
	e.UpdatedAt = es.s.now().UTC()
	return nil
}
