// Package directory maps authenticated principals to profile data, requested
// and approved roles, and approval status. Every other component consults it
// for authorization checks.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/patch"
)

// Fields a profile update may never set directly. Roles and approval status
// only change through the admin approval flow.
var protectedProfileFields = []string{"roles", "roleApprovalStatus", "id", "createdAt"}

// Service provides registration, role approval, and the shared capability
// check used by every other component.
type Service struct {
	store Store
	now   func() time.Time
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

// NewService constructs the directory service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the self-registration profile.
type RegisterInput struct {
	Email                   string `json:"email"`
	PhoneNumber             string `json:"phoneNumber"`
	CommunicationPreference string `json:"communicationPreference"`
	RequestedRoles          []Role `json:"requestedRoles"`
}

// Register creates the caller's user record with empty approved roles and a
// pending approval status. The record id is the caller's principal id.
// Re-registering an existing id overwrites the previous profile.
func (s *Service) Register(ctx context.Context, callerID string, in RegisterInput) (*User, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if in.Email == "" || in.PhoneNumber == "" || in.CommunicationPreference == "" || len(in.RequestedRoles) == 0 {
		return nil, fmt.Errorf("%w: missing required fields: email, phoneNumber, communicationPreference, requestedRoles", fault.ErrInvalidArgument)
	}
	if in.CommunicationPreference != PreferEmail && in.CommunicationPreference != PreferSMS {
		return nil, fmt.Errorf("%w: unsupported communicationPreference %q", fault.ErrInvalidArgument, in.CommunicationPreference)
	}
	for _, r := range in.RequestedRoles {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", fault.ErrInvalidArgument, r)
		}
	}

	now := s.now().UTC()
	user := &User{
		ID:                      callerID,
		Email:                   in.Email,
		PhoneNumber:             in.PhoneNumber,
		CommunicationPreference: in.CommunicationPreference,
		Roles:                   []Role{},
		RequestedRoles:          in.RequestedRoles,
		RoleApprovalStatus:      ApprovalPending,
		LegalReleaseSigned:      false,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if err := s.store.Put(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ApproveRole is the administrator decision on a user's requested roles. On
// approval the approved list becomes roles, falling back to the user's own
// requestedRoles when none are supplied. On rejection the approved list is
// left untouched.
func (s *Service) ApproveRole(ctx context.Context, callerID, userID string, approve bool, roles []Role) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: userId is required", fault.ErrInvalidArgument)
	}
	if _, err := s.Authorize(ctx, callerID, RoleAdministrator); err != nil {
		return err
	}
	user, err := s.store.Find(ctx, userID)
	if err != nil {
		return err
	}

	if !approve {
		return s.store.SetApprovalStatus(ctx, userID, ApprovalRejected)
	}
	granted := roles
	if len(granted) == 0 {
		granted = user.RequestedRoles
	}
	if granted == nil {
		granted = []Role{}
	}
	for _, r := range granted {
		if !r.Valid() {
			return fmt.Errorf("%w: unknown role %q", fault.ErrInvalidArgument, r)
		}
	}
	return s.store.SetRoles(ctx, userID, granted, ApprovalApproved)
}

// UpdateProfile applies a partial profile update. Allowed for the user
// themselves or an administrator. Attempts to set roles or approval status
// are silently dropped, not rejected.
func (s *Service) UpdateProfile(ctx context.Context, callerID, userID string, updates map[string]any) error {
	if strings.TrimSpace(callerID) == "" {
		return fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(userID) == "" || updates == nil {
		return fmt.Errorf("%w: missing required fields: userId, updates", fault.ErrInvalidArgument)
	}
	if callerID != userID {
		if _, err := s.Authorize(ctx, callerID, RoleAdministrator); err != nil {
			return err
		}
	}
	if _, err := s.store.Find(ctx, userID); err != nil {
		return err
	}
	return s.store.Patch(ctx, userID, patch.Strip(updates, protectedProfileFields...))
}

// Get returns a user record. Any authenticated caller may read any profile.
func (s *Service) Get(ctx context.Context, callerID, userID string) (*User, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", fault.ErrInvalidArgument)
	}
	return s.store.Find(ctx, userID)
}

// List returns users matching the filter.
func (s *Service) List(ctx context.Context, callerID string, f Filter) ([]*User, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	return s.store.List(ctx, f)
}

// Authorize loads the caller and passes when the intersection of their
// approved roles and the required set is non-empty. It is the single
// capability check shared by every component; administrator override is
// never implicit — call sites include RoleAdministrator explicitly when
// admins may act.
func (s *Service) Authorize(ctx context.Context, callerID string, required ...Role) (*User, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	caller, err := s.store.Find(ctx, callerID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fmt.Errorf("%w: caller has no directory record", fault.ErrPermissionDenied)
		}
		return nil, err
	}
	if len(required) == 0 {
		return caller, nil
	}
	if !caller.HasAnyRole(required...) {
		return nil, fmt.Errorf("%w: requires one of roles %v", fault.ErrPermissionDenied, required)
	}
	return caller, nil
}
