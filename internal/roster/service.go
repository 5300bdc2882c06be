// Package roster manages groups and the relief centers inside them,
// including the denormalized membership lists kept on users, groups, and
// centers. Creation is the only time the two-sided references are written;
// there is no later reconciliation, so the fan-out happens here or not at
// all.
package roster

import (
	"context"
	"fmt"
	"strings"
	"time"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/ids"
	"faithresponders.org/internal/patch"
)

var protectedFields = []string{"id", "createdAt", "createdBy"}

// Service owns group/center lifecycle and membership fan-out.
type Service struct {
	groups  GroupStore
	centers CenterStore
	users   directory.Store
	dir     *directory.Service
	now     func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the roster service.
func NewService(groups GroupStore, centers CenterStore, users directory.Store, dir *directory.Service, opts ...Option) *Service {
	s := &Service{groups: groups, centers: centers, users: users, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGroupInput carries the new group document.
type CreateGroupInput struct {
	Name        string   `json:"name"`
	EventType   string   `json:"eventType"`
	Description string   `json:"description"`
	UserIDs     []string `json:"userIds"`
	CenterIDs   []string `json:"centerIds"`
}

// CreateGroup creates a group (administrator only) and unions the group id
// into each member user's groupIds. The member fan-out runs after the group
// write as best-effort sequential updates.
func (s *Service) CreateGroup(ctx context.Context, callerID string, in CreateGroupInput) (*Group, error) {
	if in.Name == "" || in.EventType == "" {
		return nil, fmt.Errorf("%w: missing required fields: name, eventType", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	group := &Group{
		ID:          ids.New(),
		Name:        in.Name,
		EventType:   in.EventType,
		Description: in.Description,
		UserIDs:     orEmpty(in.UserIDs),
		CenterIDs:   orEmpty(in.CenterIDs),
		CreatedBy:   callerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	for _, userID := range in.UserIDs {
		if err := s.users.AddGroup(ctx, userID, group.ID); err != nil {
			return nil, fmt.Errorf("group %s created but member fan-out failed: %w", group.ID, err)
		}
	}
	return group, nil
}

// UpdateGroup applies a partial update (administrator only), stripping id,
// createdAt, and createdBy.
func (s *Service) UpdateGroup(ctx context.Context, callerID, groupID string, updates map[string]any) error {
	if strings.TrimSpace(groupID) == "" || updates == nil {
		return fmt.Errorf("%w: missing required fields: groupId, updates", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
		return err
	}
	if _, err := s.groups.Find(ctx, groupID); err != nil {
		return err
	}
	return s.groups.Patch(ctx, groupID, patch.Strip(updates, protectedFields...))
}

// GetGroup returns one group; any authenticated caller.
func (s *Service) GetGroup(ctx context.Context, callerID, groupID string) (*Group, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: groupId is required", fault.ErrInvalidArgument)
	}
	return s.groups.Find(ctx, groupID)
}

// ListGroups returns groups up to limit.
func (s *Service) ListGroups(ctx context.Context, callerID string, limit int) ([]*Group, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	return s.groups.List(ctx, limit)
}

// AddUserToGroup unions the user into the group and the group into the user.
// Both documents must exist. Administrator only.
func (s *Service) AddUserToGroup(ctx context.Context, callerID, groupID, userID string) error {
	if strings.TrimSpace(groupID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: missing required fields: groupId, userId", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
		return err
	}
	if _, err := s.groups.Find(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.users.Find(ctx, userID); err != nil {
		return err
	}
	if err := s.groups.AddUser(ctx, groupID, userID); err != nil {
		return err
	}
	return s.users.AddGroup(ctx, userID, groupID)
}

// CreateCenterInput carries the new center document.
type CreateCenterInput struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	GroupID     string   `json:"groupId"`
	LeadUserIDs []string `json:"leadUserIds"`
}

// CreateCenter creates a center (administrator only), then appends the new
// center id into the parent group's centerIds and into each lead user's
// centerIds. The denormalization is kept in sync at creation time only.
func (s *Service) CreateCenter(ctx context.Context, callerID string, in CreateCenterInput) (*Center, error) {
	if in.Name == "" || in.Address == "" || in.GroupID == "" {
		return nil, fmt.Errorf("%w: missing required fields: name, address, groupId", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	center := &Center{
		ID:          ids.New(),
		Name:        in.Name,
		Address:     in.Address,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		GroupID:     in.GroupID,
		LeadUserIDs: orEmpty(in.LeadUserIDs),
		CreatedBy:   callerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.centers.Create(ctx, center); err != nil {
		return nil, err
	}
	if err := s.groups.AddCenter(ctx, in.GroupID, center.ID); err != nil {
		return nil, fmt.Errorf("center %s created but group fan-out failed: %w", center.ID, err)
	}
	for _, leadID := range in.LeadUserIDs {
		if err := s.users.AddCenter(ctx, leadID, center.ID); err != nil {
			return nil, fmt.Errorf("center %s created but lead fan-out failed: %w", center.ID, err)
		}
	}
	return center, nil
}

// UpdateCenter applies a partial update (administrator only).
func (s *Service) UpdateCenter(ctx context.Context, callerID, centerID string, updates map[string]any) error {
	if strings.TrimSpace(centerID) == "" || updates == nil {
		return fmt.Errorf("%w: missing required fields: centerId, updates", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
		return err
	}
	if _, err := s.centers.Find(ctx, centerID); err != nil {
		return err
	}
	return s.centers.Patch(ctx, centerID, patch.Strip(updates, protectedFields...))
}

// GetCenter returns one center; any authenticated caller.
func (s *Service) GetCenter(ctx context.Context, callerID, centerID string) (*Center, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(centerID) == "" {
		return nil, fmt.Errorf("%w: centerId is required", fault.ErrInvalidArgument)
	}
	return s.centers.Find(ctx, centerID)
}

// ListCenters returns centers, optionally scoped to one group.
func (s *Service) ListCenters(ctx context.Context, callerID, groupID string, limit int) ([]*Center, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	return s.centers.List(ctx, groupID, limit)
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
