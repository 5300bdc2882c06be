// Package release issues and signs liability waivers. The volunteer waiver
// is mirrored onto the user's directory record (legalReleaseId and the
// signed flag) at create and sign time.
package release

import (
	"context"
	"fmt"
	"strings"
	"time"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/ids"
)

// Service gates release operations.
type Service struct {
	store Store
	users directory.Store
	dir   *directory.Service
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

// NewService constructs the release service.
func NewService(store Store, users directory.Store, dir *directory.Service, opts ...Option) *Service {
	s := &Service{store: store, users: users, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the waiver to issue.
type CreateInput struct {
	UserID       string      `json:"userId"`
	ReleaseType  ReleaseType `json:"releaseType"`
	DocumentURL  string      `json:"documentUrl"`
	AssessmentID string      `json:"assessmentId"`
}

// Create issues a waiver for a user. Callers may issue their own; only
// administrators may issue for someone else. A volunteer release is attached
// to the user's directory record.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (*LegalRelease, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if in.UserID == "" || in.ReleaseType == "" {
		return nil, fmt.Errorf("%w: missing required fields: userId, releaseType", fault.ErrInvalidArgument)
	}
	if !in.ReleaseType.Valid() {
		return nil, fmt.Errorf("%w: unknown release type %q", fault.ErrInvalidArgument, in.ReleaseType)
	}
	if in.UserID != callerID {
		if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
			return nil, err
		}
	}
	if _, err := s.users.Find(ctx, in.UserID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	r := &LegalRelease{
		ID:           ids.New(),
		UserID:       in.UserID,
		ReleaseType:  in.ReleaseType,
		DocumentURL:  in.DocumentURL,
		AssessmentID: in.AssessmentID,
		Signed:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	if r.ReleaseType == ReleaseTypeVolunteer {
		if err := s.users.AttachLegalRelease(ctx, r.UserID, r.ID); err != nil {
			return nil, fmt.Errorf("release %s created but user stamp failed: %w", r.ID, err)
		}
	}
	return r, nil
}

// Sign records the owner's signature. Only the user the waiver was issued to
// may sign it; a volunteer release flips legalReleaseSigned on the user.
func (s *Service) Sign(ctx context.Context, callerID, releaseID, signatureImageURL string) error {
	if strings.TrimSpace(callerID) == "" {
		return fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(releaseID) == "" {
		return fmt.Errorf("%w: releaseId is required", fault.ErrInvalidArgument)
	}
	r, err := s.store.Find(ctx, releaseID)
	if err != nil {
		return err
	}
	if r.UserID != callerID {
		return fmt.Errorf("%w: only the release owner may sign", fault.ErrPermissionDenied)
	}
	if err := s.store.MarkSigned(ctx, releaseID, s.now().UTC(), signatureImageURL); err != nil {
		return err
	}
	if r.ReleaseType == ReleaseTypeVolunteer {
		return s.users.MarkReleaseSigned(ctx, r.UserID)
	}
	return nil
}

// Get returns a waiver to its owner or an administrator.
func (s *Service) Get(ctx context.Context, callerID, releaseID string) (*LegalRelease, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(releaseID) == "" {
		return nil, fmt.Errorf("%w: releaseId is required", fault.ErrInvalidArgument)
	}
	r, err := s.store.Find(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	if r.UserID != callerID {
		if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator); err != nil {
			return nil, err
		}
	}
	return r, nil
}
