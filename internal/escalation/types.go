package escalation

import (
	"context"
	"time"
)

// Type classifies who an escalation is routed to.
type Type string

const (
	TypeAssessor       Type = "assessor"
	TypeAdministrative Type = "administrative"
	TypeThirdParty     Type = "thirdParty"
)

// Valid reports whether the type is one of the known routes.
func (t Type) Valid() bool {
	switch t {
	case TypeAssessor, TypeAdministrative, TypeThirdParty:
		return true
	}
	return false
}

// Status tracks the escalation lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inProgress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// Valid reports whether the status is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Escalation is a blocked-work report raised against a workgroup.
type Escalation struct {
	ID           string     `json:"id"`
	WorkgroupID  string     `json:"workgroupId"`
	CenterID     string     `json:"centerId"`
	GroupID      string     `json:"groupId"`
	AssessmentID string     `json:"assessmentId,omitempty"`
	Type         Type       `json:"type"`
	Reason       string     `json:"reason"`
	Status       Status     `json:"status"`
	AssignedTo   string     `json:"assignedTo,omitempty"`
	Resolution   string     `json:"resolution,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Filter narrows List results.
type Filter struct {
	WorkgroupID string
	CenterID    string
	GroupID     string
	Status      Status
	Type        Type
	Limit       int
}

// Store persists escalations.
type Store interface {
	Create(ctx context.Context, e *Escalation) error
	Find(ctx context.Context, id string) (*Escalation, error)
	List(ctx context.Context, f Filter) ([]*Escalation, error)

	// SetStatus updates the lifecycle status and, when assignedTo is
	// non-empty, the assignee.
	SetStatus(ctx context.Context, id string, status Status, assignedTo string) error

	// Resolve stamps the resolution text and time and moves the escalation
	// to resolved.
	Resolve(ctx context.Context, id, resolution string, at time.Time) error
}

// WorkgroupStore is the slice of the workgroup store the escalation flow
// needs: forcing the task into its escalated state.
type WorkgroupStore interface {
	MarkNeedsEscalation(ctx context.Context, workgroupID string) error
}
