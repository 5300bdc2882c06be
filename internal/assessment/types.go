package assessment

import (
	"context"
	"time"
)

// Severity ranks the damage recorded by an assessment.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Assessment is a field damage report filed by an assessor at a center.
// Damages and needs are free-text summaries written on site.
type Assessment struct {
	ID                string    `json:"id"`
	CenterID          string    `json:"centerId"`
	GroupID           string    `json:"groupId"`
	AssessorID        string    `json:"assessorId"`
	PlaceName         string    `json:"placeName"`
	Address           string    `json:"address"`
	Latitude          *float64  `json:"latitude,omitempty"`
	Longitude         *float64  `json:"longitude,omitempty"`
	Severity          Severity  `json:"severity"`
	Damages           string    `json:"damages"`
	Needs             string    `json:"needs"`
	AffectedPeople    int       `json:"affectedPeople"`
	PhotoURLs         []string  `json:"photoUrls"`
	LegalReleaseURL   string    `json:"legalReleaseUrl,omitempty"`
	FlaggedForReview  bool      `json:"flaggedForReview"`
	ReassessmentCount int       `json:"reassessmentCount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Filter narrows List results.
type Filter struct {
	CenterID         string
	GroupID          string
	FlaggedForReview *bool
	Limit            int
}

// Store persists assessments.
type Store interface {
	Create(ctx context.Context, a *Assessment) error
	Find(ctx context.Context, id string) (*Assessment, error)
	List(ctx context.Context, f Filter) ([]*Assessment, error)

	// Patch merges the update document into the stored assessment and bumps
	// updatedAt. Callers strip protected fields first.
	Patch(ctx context.Context, id string, updates map[string]any) error

	// Reassess merges updates, increments reassessmentCount atomically, and
	// overwrites flaggedForReview with flag. Concurrent calls must each be
	// counted.
	Reassess(ctx context.Context, id string, updates map[string]any, flag bool) error
}
