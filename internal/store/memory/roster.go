package memory

import (
	"context"
	"fmt"

	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/patch"
	"faithresponders.org/internal/roster"
)

// GroupStore implements roster.GroupStore over the shared in-memory state.
type GroupStore struct {
	s *Store
}

func (gs *GroupStore) Create(_ context.Context, g *roster.Group) error {
	gs.s.mu.Lock()
	defer gs.s.mu.Unlock()
	gs.s.groups[g.ID] = clone(g)
	return nil
}

func (gs *GroupStore) Find(_ context.Context, id string) (*roster.Group, error) {
	gs.s.mu.RLock()
	defer gs.s.mu.RUnlock()
	g, ok := gs.s.groups[id]
	if !ok {
		return nil, fmt.Errorf("%w: group %s", fault.ErrNotFound, id)
	}
	return clone(g), nil
}

func (gs *GroupStore) List(_ context.Context, limit int) ([]*roster.Group, error) {
	gs.s.mu.RLock()
	defer gs.s.mu.RUnlock()
	out := make([]*roster.Group, 0, len(gs.s.groups))
	for _, g := range gs.s.groups {
		out = append(out, clone(g))
	}
	sortNewestFirst(out, func(g *roster.Group) string { return g.ID })
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (gs *GroupStore) Patch(_ context.Context, id string, updates map[string]any) error {
	gs.s.mu.Lock()
	defer gs.s.mu.Unlock()
	g, ok := gs.s.groups[id]
	if !ok {
		return fmt.Errorf("%w: group %s", fault.ErrNotFound, id)
	}
	// Patch a copy so a rejected update leaves the stored document untouched.
	next := clone(g)
	if err := patch.Apply(next, updates); err != nil {
		return err
	}
	next.UpdatedAt = gs.s.now().UTC()
	gs.s.groups[id] = next
	return nil
}

func (gs *GroupStore) AddUser(_ context.Context, groupID, userID string) error {
	gs.s.mu.Lock()
	defer gs.s.mu.Unlock()
	g, ok := gs.s.groups[groupID]
	if !ok {
		return fmt.Errorf("%w: group %s", fault.ErrNotFound, groupID)
	}
	g.UserIDs = union(g.UserIDs, userID)
	g.UpdatedAt = gs.s.now().UTC()
	return nil
}

func (gs *GroupStore) AddCenter(_ context.Context, groupID, centerID string) error {
	gs.s.mu.Lock()
	defer gs.s.mu.Unlock()
	g, ok := gs.s.groups[groupID]
	if !ok {
		return fmt.Errorf("%w: group %s", fault.ErrNotFound, groupID)
	}
	g.CenterIDs = union(g.CenterIDs, centerID)
	g.UpdatedAt = gs.s.now().UTC()
	return nil
}

// CenterStore implements roster.CenterStore over the shared in-memory state.
type CenterStore struct {
	s *Store
}

func (cs *CenterStore) Create(_ context.Context, c *roster.Center) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	cs.s.centers[c.ID] = clone(c)
	return nil
}

func (cs *CenterStore) Find(_ context.Context, id string) (*roster.Center, error) {
	cs.s.mu.RLock()
	defer cs.s.mu.RUnlock()
	c, ok := cs.s.centers[id]
	if !ok {
		return nil, fmt.Errorf("%w: center %s", fault.ErrNotFound, id)
	}
	return clone(c), nil
}

func (cs *CenterStore) List(_ context.Context, groupID string, limit int) ([]*roster.Center, error) {
	cs.s.mu.RLock()
	defer cs.s.mu.RUnlock()
	out := make([]*roster.Center, 0, len(cs.s.centers))
	for _, c := range cs.s.centers {
		if groupID != "" && c.GroupID != groupID {
			continue
		}
		out = append(out, clone(c))
	}
	sortNewestFirst(out, func(c *roster.Center) string { return c.ID })
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (cs *CenterStore) Patch(_ context.Context, id string, updates map[string]any) error {
	cs.s.mu.Lock()
	defer cs.s.mu.Unlock()
	c, ok := cs.s.centers[id]
	if !ok {
		return fmt.Errorf("%w: center %s", fault.ErrNotFound, id)
	}
	next := clone(c)
	if err := patch.Apply(next, updates); err != nil {
		return err
	}
	next.UpdatedAt = cs.s.now().UTC()
	cs.s.centers[id] = next
	return nil
}
