// Package escalation routes blocked-work reports raised against workgroups.
// Raising one also forces the workgroup's task into needsEscalation; the two
// writes are sequential, so a crash between them leaves the escalation on
// record without the workgroup flag.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"faithresponders.org/internal/audit"
	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/ids"
	"faithresponders.org/internal/stream"
)

// Service gates escalation operations on directory roles.
type Service struct {
	store      Store
	workgroups WorkgroupStore
	dir        *directory.Service
	events     *stream.Stream
	now        func() time.Time
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

// NewService constructs the escalation service. events may be nil when no
// live subscribers are wired.
func NewService(store Store, workgroups WorkgroupStore, dir *directory.Service, events *stream.Stream, opts ...Option) *Service {
	s := &Service{store: store, workgroups: workgroups, dir: dir, events: events, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries a new escalation. AssessmentID links back to the
// report the blocked work came from; it is optional.
type CreateInput struct {
	WorkgroupID  string `json:"workgroupId"`
	CenterID     string `json:"centerId"`
	GroupID      string `json:"groupId"`
	AssessmentID string `json:"assessmentId"`
	Type         Type   `json:"type"`
	Reason       string `json:"reason"`
}

// Create raises an escalation (workGroupLead or assessor) and then pushes
// the referenced workgroup into needsEscalation. The workgroup write runs
// after the escalation is durable; its failure is reported but the
// escalation stands.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (*Escalation, error) {
	if in.WorkgroupID == "" || in.CenterID == "" || in.GroupID == "" || in.Type == "" || in.Reason == "" {
		return nil, fmt.Errorf("%w: missing required fields: workgroupId, centerId, groupId, type, reason", fault.ErrInvalidArgument)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown escalation type %q", fault.ErrInvalidArgument, in.Type)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleWorkGroupLead, directory.RoleAssessor); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e := &Escalation{
		ID:           ids.New(),
		WorkgroupID:  in.WorkgroupID,
		CenterID:     in.CenterID,
		GroupID:      in.GroupID,
		AssessmentID: in.AssessmentID,
		Type:         in.Type,
		Reason:       in.Reason,
		Status:       StatusPending,
		CreatedBy:    callerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	if err := s.workgroups.MarkNeedsEscalation(ctx, in.WorkgroupID); err != nil {
		audit.LogEvent(ctx, "escalation.workgroup_push_failed", map[string]any{
			"escalation_id": e.ID,
			"workgroup_id":  in.WorkgroupID,
			"error":         err.Error(),
		})
		return nil, fmt.Errorf("escalation %s created but workgroup push failed: %w", e.ID, err)
	}
	if s.events != nil {
		s.events.Publish(stream.EscalationEvent{
			EscalationID: e.ID,
			WorkgroupID:  e.WorkgroupID,
			CenterID:     e.CenterID,
			GroupID:      e.GroupID,
			Type:         string(e.Type),
			Reason:       e.Reason,
			Timestamp:    now,
		})
	}
	return e, nil
}

// UpdateStatus moves an escalation through its lifecycle and optionally
// assigns it. Requires administrator or workGroupLead role.
func (s *Service) UpdateStatus(ctx context.Context, callerID, escalationID string, status Status, assignedTo string) error {
	if strings.TrimSpace(escalationID) == "" || status == "" {
		return fmt.Errorf("%w: missing required fields: escalationId, status", fault.ErrInvalidArgument)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown escalation status %q", fault.ErrInvalidArgument, status)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator, directory.RoleWorkGroupLead); err != nil {
		return err
	}
	if _, err := s.store.Find(ctx, escalationID); err != nil {
		return err
	}
	return s.store.SetStatus(ctx, escalationID, status, assignedTo)
}

// Resolve closes an escalation with a resolution note. The workgroup keeps
// its needsEscalation status; moving it on is a separate, deliberate status
// update by the crew. Requires administrator or workGroupLead role.
func (s *Service) Resolve(ctx context.Context, callerID, escalationID, resolution string) error {
	if strings.TrimSpace(escalationID) == "" || strings.TrimSpace(resolution) == "" {
		return fmt.Errorf("%w: missing required fields: escalationId, resolution", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleAdministrator, directory.RoleWorkGroupLead); err != nil {
		return err
	}
	if _, err := s.store.Find(ctx, escalationID); err != nil {
		return err
	}
	return s.store.Resolve(ctx, escalationID, resolution, s.now().UTC())
}

// Get returns one escalation; any authenticated caller.
func (s *Service) Get(ctx context.Context, callerID, escalationID string) (*Escalation, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(escalationID) == "" {
		return nil, fmt.Errorf("%w: escalationId is required", fault.ErrInvalidArgument)
	}
	return s.store.Find(ctx, escalationID)
}

// List returns escalations matching the filter.
func (s *Service) List(ctx context.Context, callerID string, f Filter) ([]*Escalation, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	return s.store.List(ctx, f)
}
