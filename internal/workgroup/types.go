package workgroup

import (
	"context"
	"time"
)

// TaskStatus tracks the lifecycle of a workgroup's task.
type TaskStatus string

const (
	StatusNotStarted         TaskStatus = "notStarted"
	StatusInProgress         TaskStatus = "inProgress"
	StatusPartiallyCompleted TaskStatus = "partiallyCompleted"
	StatusCompleted          TaskStatus = "completed"
	StatusNeedsEscalation    TaskStatus = "needsEscalation"
)

// Valid reports whether the status is one of the known task states.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusPartiallyCompleted,
		StatusCompleted, StatusNeedsEscalation:
		return true
	}
	return false
}

// ProgressNote is a timestamped remark appended during a status update.
type ProgressNote struct {
	Note      string    `json:"note"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// Workgroup is a crew assigned to carry out work at a center, usually born
// from an assessment.
type Workgroup struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	CenterID        string         `json:"centerId"`
	GroupID         string         `json:"groupId"`
	AssessmentID    string         `json:"assessmentId"`
	LeadUserID      string         `json:"leadUserId"`
	WorkerUserIDs   []string       `json:"workerUserIds"`
	TaskStatus      TaskStatus     `json:"taskStatus"`
	TaskDescription string         `json:"taskDescription"`
	ProgressNotes   []ProgressNote `json:"progressNotes"`
	PhotoURLs       []string       `json:"photoUrls"`
	CreatedBy       string         `json:"createdBy"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// IsWorker reports whether userID is on the crew's worker list.
func (w *Workgroup) IsWorker(userID string) bool {
	for _, id := range w.WorkerUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Filter narrows List results.
type Filter struct {
	CenterID     string
	GroupID      string
	AssessmentID string
	TaskStatus   TaskStatus
	Limit        int
}

// Store persists workgroups.
type Store interface {
	Create(ctx context.Context, w *Workgroup) error
	Find(ctx context.Context, id string) (*Workgroup, error)
	List(ctx context.Context, f Filter) ([]*Workgroup, error)

	// Patch merges the update document and bumps updatedAt. Callers strip
	// protected fields first.
	Patch(ctx context.Context, id string, updates map[string]any) error

	// UpdateStatus sets taskStatus and, when supplied, appends note to
	// progressNotes and photoURLs to photoUrls in one atomic write.
	UpdateStatus(ctx context.Context, id string, status TaskStatus, note *ProgressNote, photoURLs []string) error

	// AddWorker unions the user into workerUserIds.
	AddWorker(ctx context.Context, id, userID string) error
}
