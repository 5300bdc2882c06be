// Package assessment records field damage reports and their follow-up
// reassessments. The reassessment counter is the only numeric field mutated
// in place; everything else is merge-style patching.
package assessment

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

var protectedFields = []string{"id", "createdAt", "assessorId"}

// Service gates assessment operations on directory roles.
type Service struct {
	store Store
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

// NewService constructs the assessment service.
func NewService(store Store, dir *directory.Service, opts ...Option) *Service {
	s := &Service{store: store, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries a new assessment. AffectedPeople is a pointer so a
// missing value can be told apart from an explicit zero; it must be present.
type CreateInput struct {
	CenterID        string   `json:"centerId"`
	GroupID         string   `json:"groupId"`
	PlaceName       string   `json:"placeName"`
	Address         string   `json:"address"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Severity        Severity `json:"severity"`
	Damages         string   `json:"damages"`
	Needs           string   `json:"needs"`
	AffectedPeople  *int     `json:"affectedPeople"`
	PhotoURLs       []string `json:"photoUrls"`
	LegalReleaseURL string   `json:"legalReleaseUrl"`
}

// Create files a new assessment. Assessor role required; the assessor of
// record is always the caller.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (*Assessment, error) {
	if in.PlaceName == "" || in.Address == "" || in.CenterID == "" || in.GroupID == "" ||
		in.Damages == "" || in.Needs == "" || in.AffectedPeople == nil || in.Severity == "" {
		return nil, fmt.Errorf("%w: missing required fields: placeName, address, centerId, groupId, damages, needs, affectedPeople, severity", fault.ErrInvalidArgument)
	}
	if !in.Severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", fault.ErrInvalidArgument, in.Severity)
	}
	if *in.AffectedPeople < 0 {
		return nil, fmt.Errorf("%w: affectedPeople must not be negative", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAssessor); err != nil {
		return nil, err
	}

	photos := in.PhotoURLs
	if photos == nil {
		photos = []string{}
	}
	now := s.now().UTC()
	a := &Assessment{
		ID:                ids.New(),
		CenterID:          in.CenterID,
		GroupID:           in.GroupID,
		AssessorID:        callerID,
		PlaceName:         in.PlaceName,
		Address:           in.Address,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		Severity:          in.Severity,
		Damages:           in.Damages,
		Needs:             in.Needs,
		AffectedPeople:    *in.AffectedPeople,
		PhotoURLs:         photos,
		LegalReleaseURL:   in.LegalReleaseURL,
		FlaggedForReview:  false,
		ReassessmentCount: 0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies a partial update. Allowed for an administrator or the
// assessor who filed the report; id, createdAt, and assessorId are stripped.
func (s *Service) Update(ctx context.Context, callerID, assessmentID string, updates map[string]any) error {
	if strings.TrimSpace(assessmentID) == "" || updates == nil {
		return fmt.Errorf("%w: missing required fields: assessmentId, updates", fault.ErrInvalidArgument)
	}
	caller, err := s.dir.Authorize(ctx, callerID)
	if err != nil {
		return err
	}
	a, err := s.store.Find(ctx, assessmentID)
	if err != nil {
		return err
	}
	if a.AssessorID != caller.ID && !caller.HasRole(directory.RoleAdministrator) {
		return fmt.Errorf("%w: only the filing assessor or an administrator may update an assessment", fault.ErrPermissionDenied)
	}
	return s.store.Patch(ctx, assessmentID, patch.Strip(updates, protectedFields...))
}

// Reassess records a follow-up visit: updates merge in, reassessmentCount is
// incremented atomically, and flaggedForReview is overwritten with flag.
// Any assessor may reassess any report, not just their own.
func (s *Service) Reassess(ctx context.Context, callerID, assessmentID string, updates map[string]any, flag bool) error {
	if strings.TrimSpace(assessmentID) == "" {
		return fmt.Errorf("%w: assessmentId is required", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAssessor); err != nil {
		return err
	}
	if _, err := s.store.Find(ctx, assessmentID); err != nil {
		return err
	}
	return s.store.Reassess(ctx, assessmentID, patch.Strip(updates, protectedFields...), flag)
}

// Get returns one assessment; any authenticated caller.
func (s *Service) Get(ctx context.Context, callerID, assessmentID string) (*Assessment, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(assessmentID) == "" {
		return nil, fmt.Errorf("%w: assessmentId is required", fault.ErrInvalidArgument)
	}
	return s.store.Find(ctx, assessmentID)
}

// List returns assessments matching the filter.
func (s *Service) List(ctx context.Context, callerID string, f Filter) ([]*Assessment, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	return s.store.List(ctx, f)
}
