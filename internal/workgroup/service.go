// Package workgroup manages work crews and their task progress. Status
// updates append to the progress log rather than replacing it, so the full
// history of a task survives on the document.
package workgroup

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

// Service gates workgroup operations on directory roles.
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

// NewService constructs the workgroup service.
func NewService(store Store, dir *directory.Service, opts ...Option) *Service {
	s := &Service{store: store, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries a new workgroup document.
type CreateInput struct {
	Name            string   `json:"name"`
	CenterID        string   `json:"centerId"`
	GroupID         string   `json:"groupId"`
	AssessmentID    string   `json:"assessmentId"`
	LeadUserID      string   `json:"leadUserId"`
	WorkerUserIDs   []string `json:"workerUserIds"`
	TaskDescription string   `json:"taskDescription"`
}

// Create opens a new workgroup with taskStatus notStarted. Requires the
// workGroupLead or administrator role.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (*Workgroup, error) {
	if in.Name == "" || in.CenterID == "" || in.GroupID == "" || in.LeadUserID == "" ||
		in.AssessmentID == "" || in.TaskDescription == "" {
		return nil, fmt.Errorf("%w: missing required fields: name, centerId, groupId, leadUserId, assessmentId, taskDescription", fault.ErrInvalidArgument)
	}
	if _, err := s.dir.Authorize(ctx, callerID, directory.RoleWorkGroupLead, directory.RoleAdministrator); err != nil {
		return nil, err
	}

	workers := in.WorkerUserIDs
	if workers == nil {
		workers = []string{}
	}
	now := s.now().UTC()
	w := &Workgroup{
		ID:              ids.New(),
		Name:            in.Name,
		CenterID:        in.CenterID,
		GroupID:         in.GroupID,
		AssessmentID:    in.AssessmentID,
		LeadUserID:      in.LeadUserID,
		WorkerUserIDs:   workers,
		TaskStatus:      StatusNotStarted,
		TaskDescription: in.TaskDescription,
		ProgressNotes:   []ProgressNote{},
		PhotoURLs:       []string{},
		CreatedBy:       callerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// canModify reports whether the caller may touch this crew's document:
// administrators, the crew's lead, and anyone on its worker list. Membership
// is decided per workgroup, not by holding a role somewhere else.
func canModify(caller *directory.User, w *Workgroup) bool {
	return caller.HasRole(directory.RoleAdministrator) ||
		w.LeadUserID == caller.ID ||
		w.IsWorker(caller.ID)
}

// Update applies a partial update. Allowed for an administrator, the crew's
// lead, or a listed worker; id, createdAt, and createdBy are stripped.
func (s *Service) Update(ctx context.Context, callerID, workgroupID string, updates map[string]any) error {
	if strings.TrimSpace(workgroupID) == "" || updates == nil {
		return fmt.Errorf("%w: missing required fields: workgroupId, updates", fault.ErrInvalidArgument)
	}
	caller, err := s.dir.Authorize(ctx, callerID)
	if err != nil {
		return err
	}
	w, err := s.store.Find(ctx, workgroupID)
	if err != nil {
		return err
	}
	if !canModify(caller, w) {
		return fmt.Errorf("%w: only the crew's lead, its workers, or an administrator may update a workgroup", fault.ErrPermissionDenied)
	}
	return s.store.Patch(ctx, workgroupID, patch.Strip(updates, protectedFields...))
}

// UpdateStatus moves the task to status, appending an optional progress note
// attributed to the caller and any photo urls. Allowed for an administrator,
// the crew's lead, or a listed worker.
func (s *Service) UpdateStatus(ctx context.Context, callerID, workgroupID string, status TaskStatus, note string, photoURLs []string) error {
	if strings.TrimSpace(workgroupID) == "" || status == "" {
		return fmt.Errorf("%w: missing required fields: workgroupId, status", fault.ErrInvalidArgument)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown task status %q", fault.ErrInvalidArgument, status)
	}
	caller, err := s.dir.Authorize(ctx, callerID)
	if err != nil {
		return err
	}
	w, err := s.store.Find(ctx, workgroupID)
	if err != nil {
		return err
	}
	if !canModify(caller, w) {
		return fmt.Errorf("%w: only the crew's lead, its workers, or an administrator may update task status", fault.ErrPermissionDenied)
	}
	var pn *ProgressNote
	if note != "" {
		pn = &ProgressNote{Note: note, UserID: caller.ID, Timestamp: s.now().UTC()}
	}
	return s.store.UpdateStatus(ctx, workgroupID, status, pn, photoURLs)
}

// AddWorker unions a user into the crew. Only an administrator or this crew's
// lead may change the roster; workers cannot add themselves.
func (s *Service) AddWorker(ctx context.Context, callerID, workgroupID, userID string) error {
	if strings.TrimSpace(workgroupID) == "" || strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: missing required fields: workgroupId, userId", fault.ErrInvalidArgument)
	}
	caller, err := s.dir.Authorize(ctx, callerID)
	if err != nil {
		return err
	}
	w, err := s.store.Find(ctx, workgroupID)
	if err != nil {
		return err
	}
	if !caller.HasRole(directory.RoleAdministrator) && w.LeadUserID != caller.ID {
		return fmt.Errorf("%w: only the crew's lead or an administrator may change the roster", fault.ErrPermissionDenied)
	}
	return s.store.AddWorker(ctx, workgroupID, userID)
}

// Get returns one workgroup; any authenticated caller.
func (s *Service) Get(ctx context.Context, callerID, workgroupID string) (*Workgroup, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	if strings.TrimSpace(workgroupID) == "" {
		return nil, fmt.Errorf("%w: workgroupId is required", fault.ErrInvalidArgument)
	}
	return s.store.Find(ctx, workgroupID)
}

// List returns workgroups matching the filter.
func (s *Service) List(ctx context.Context, callerID string, f Filter) ([]*Workgroup, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, fmt.Errorf("%w: caller identity required", fault.ErrUnauthenticated)
	}
	return s.store.List(ctx, f)
}
