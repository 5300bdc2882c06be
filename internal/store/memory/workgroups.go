package memory

import (
	"context"
	"fmt"

	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/patch"
	"faithresponders.org/internal/workgroup"
)

// WorkgroupStore implements workgroup.Store and the escalation push over the
// shared in-memory state.
type WorkgroupStore struct {
	s *Store
}

func (ws *WorkgroupStore) Create(_ context.Context, w *workgroup.Workgroup) error {
	ws.s.mu.Lock()
	defer ws.s.mu.Unlock()
	ws.s.workgroups[w.ID] = clone(w)
	return nil
}

func (ws *WorkgroupStore) Find(_ context.Context, id string) (*workgroup.Workgroup, error) {
	ws.s.mu.RLock()
	defer ws.s.mu.RUnlock()
	w, ok := ws.s.workgroups[id]
	if !ok {
		return nil, fmt.Errorf("%w: workgroup %s", fault.ErrNotFound, id)
	}
	return clone(w), nil
}

func (ws *WorkgroupStore) List(_ context.Context, f workgroup.Filter) ([]*workgroup.Workgroup, error) {
	ws.s.mu.RLock()
	defer ws.s.mu.RUnlock()
	out := make([]*workgroup.Workgroup, 0, len(ws.s.workgroups))
	for _, w := range ws.s.workgroups {
		if f.CenterID != "" && w.CenterID != f.CenterID {
			continue
		}
		if f.GroupID != "" && w.GroupID != f.GroupID {
			continue
		}
		if f.AssessmentID != "" && w.AssessmentID != f.AssessmentID {
			continue
		}
		if f.TaskStatus != "" && w.TaskStatus != f.TaskStatus {
			continue
		}
		out = append(out, clone(w))
	}
	sortNewestFirst(out, func(w *workgroup.Workgroup) string { return w.ID })
	if n := clampLimit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (ws *WorkgroupStore) Patch(_ context.Context, id string, updates map[string]any) error {
	ws.s.mu.Lock()
	defer ws.s.mu.Unlock()
	w, ok := ws.s.workgroups[id]
	if !ok {
		return fmt.Errorf("%w: workgroup %s", fault.ErrNotFound, id)
	}
	// Patch a copy so a rejected update leaves the stored document untouched.
	next := clone(w)
	if err := patch.Apply(next, updates); err != nil {
		return err
	}
	next.UpdatedAt = ws.s.now().UTC()
	ws.s.workgroups[id] = next
	return nil
}

func (ws *WorkgroupStore) UpdateStatus(_ context.Context, id string, status workgroup.TaskStatus, note *workgroup.ProgressNote, photoURLs []string) error {
	ws.s.mu.Lock()
	defer ws.s.mu.Unlock()
	w, ok := ws.s.workgroups[id]
	if !ok {
		return fmt.Errorf("%w: workgroup %s", fault.ErrNotFound, id)
	}
	w.TaskStatus = status
	if note != nil {
		w.ProgressNotes = append(w.ProgressNotes, *note)
	}
	w.PhotoURLs = append(w.PhotoURLs, photoURLs...)
	w.UpdatedAt = ws.s.now().UTC()
	return nil
}

func (ws *WorkgroupStore) AddWorker(_ context.Context, id, userID string) error {
	ws.s.mu.Lock()
	defer ws.s.mu.Unlock()
	w, ok := ws.s.workgroups[id]
	if !ok {
		return fmt.Errorf("%w: workgroup %s", fault.ErrNotFound, id)
	}
	w.WorkerUserIDs = union(w.WorkerUserIDs, userID)
	w.UpdatedAt = ws.s.now().UTC()
	return nil
}

// MarkNeedsEscalation forces the task status without touching notes or
// photos. Used by the escalation flow.
func (ws *WorkgroupStore) MarkNeedsEscalation(ctx context.Context, id string) error {
	return ws.UpdateStatus(ctx, id, workgroup.StatusNeedsEscalation, nil, nil)
}
