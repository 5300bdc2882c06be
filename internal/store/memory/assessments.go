package memory

import (
	"context"
	"fmt"

	"faithresponders.org/internal/assessment"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/patch"
)

// AssessmentStore implements assessment.Store over the shared in-memory
// state.
type AssessmentStore struct {
	s *Store
}

func (as *AssessmentStore) Create(_ context.Context, a *assessment.Assessment) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	as.s.assessments[a.ID] = clone(a)
	return nil
}

func (as *AssessmentStore) Find(_ context.Context, id string) (*assessment.Assessment, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()
	a, ok := as.s.assessments[id]
	if !ok {
		return nil, fmt.Errorf("%w: assessment %s", fault.ErrNotFound, id)
	}
	return clone(a), nil
}

func (as *AssessmentStore) List(_ context.Context, f assessment.Filter) ([]*assessment.Assessment, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()
	out := make([]*assessment.Assessment, 0, len(as.s.assessments))
	for _, a := range as.s.assessments {
		if f.CenterID != "" && a.CenterID != f.CenterID {
			continue
		}
		if f.GroupID != "" && a.GroupID != f.GroupID {
			continue
		}
		if f.FlaggedForReview != nil && a.FlaggedForReview != *f.FlaggedForReview {
			continue
		}
		out = append(out, clone(a))
	}
	sortNewestFirst(out, func(a *assessment.Assessment) string { return a.ID })
	if n := clampLimit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (as *AssessmentStore) Patch(_ context.Context, id string, updates map[string]any) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	a, ok := as.s.assessments[id]
	if !ok {
		return fmt.Errorf("%w: assessment %s", fault.ErrNotFound, id)
	}
	// Patch a copy so a rejected update leaves the stored document untouched.
	next := clone(a)
	if err := patch.Apply(next, updates); err != nil {
		return err
	}
	next.UpdatedAt = as.s.now().UTC()
	as.s.assessments[id] = next
	return nil
}

func (as *AssessmentStore) Reassess(_ context.Context, id string, updates map[string]any, flag bool) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()
	a, ok := as.s.assessments[id]
	if !ok {
		return fmt.Errorf("%w: assessment %s", fault.ErrNotFound, id)
	}
	next := clone(a)
	if err := patch.Apply(next, updates); err != nil {
		return err
	}
	// The counter and the flag win over anything the update document said.
	next.ReassessmentCount++
	next.FlaggedForReview = flag
	next.UpdatedAt = as.s.now().UTC()
	as.s.assessments[id] = next
	return nil
}
