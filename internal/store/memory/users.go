package memory

import (
	"context"
	"fmt"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/patch"
)

// UserStore implements directory.Store over the shared in-memory state.
type UserStore struct {
	s *Store
}

func (us *UserStore) Put(_ context.Context, u *directory.User) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	us.s.users[u.ID] = clone(u)
	return nil
}

func (us *UserStore) Find(_ context.Context, id string) (*directory.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()
	u, ok := us.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", fault.ErrNotFound, id)
	}
	return clone(u), nil
}

func (us *UserStore) List(_ context.Context, f directory.Filter) ([]*directory.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()
	out := make([]*directory.User, 0, len(us.s.users))
	for _, u := range us.s.users {
		if f.Role != "" && !u.HasRole(f.Role) {
			continue
		}
		if f.GroupID != "" && !contains(u.GroupIDs, f.GroupID) {
			continue
		}
		if f.CenterID != "" && !contains(u.CenterIDs, f.CenterID) {
			continue
		}
		out = append(out, clone(u))
	}
	sortNewestFirst(out, func(u *directory.User) string { return u.ID })
	if n := clampLimit(f.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (us *UserStore) Patch(_ context.Context, id string, updates map[string]any) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, id)
	}
	// Patch a copy so a rejected update leaves the stored document untouched.
	next := clone(u)
	if err := patch.Apply(next, updates); err != nil {
		return err
	}
	next.UpdatedAt = us.s.now().UTC()
	us.s.users[id] = next
	return nil
}

func (us *UserStore) SetRoles(_ context.Context, id string, roles []directory.Role, status directory.ApprovalStatus) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, id)
	}
	u.Roles = append([]directory.Role{}, roles...)
	u.RoleApprovalStatus = status
	u.UpdatedAt = us.s.now().UTC()
	return nil
}

func (us *UserStore) SetApprovalStatus(_ context.Context, id string, status directory.ApprovalStatus) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, id)
	}
	u.RoleApprovalStatus = status
	u.UpdatedAt = us.s.now().UTC()
	return nil
}

func (us *UserStore) AddGroup(_ context.Context, userID, groupID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, userID)
	}
	u.GroupIDs = union(u.GroupIDs, groupID)
	u.UpdatedAt = us.s.now().UTC()
	return nil
}

func (us *UserStore) AddCenter(_ context.Context, userID, centerID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, userID)
	}
	u.CenterIDs = union(u.CenterIDs, centerID)
	u.UpdatedAt = us.s.now().UTC()
	return nil
}

func (us *UserStore) AttachLegalRelease(_ context.Context, userID, releaseID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, userID)
	}
	u.LegalReleaseID = releaseID
	u.LegalReleaseSigned = false
	u.UpdatedAt = us.s.now().UTC()
	return nil
}

func (us *UserStore) MarkReleaseSigned(_ context.Context, userID string) error {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()
	u, ok := us.s.users[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", fault.ErrNotFound, userID)
	}
	u.LegalReleaseSigned = true
	u.UpdatedAt = us.s.now().UTC()
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
