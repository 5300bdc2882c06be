package release

import (
	"context"
	"time"
)

// ReleaseType distinguishes the waivers we issue.
type ReleaseType string

const (
	// ReleaseTypeVolunteer is the waiver stamped back onto the user's
	// directory record.
	ReleaseTypeVolunteer ReleaseType = "volunteer"
	// ReleaseTypePropertyAccess covers entering a damaged property and is
	// usually tied to an assessment.
	ReleaseTypePropertyAccess ReleaseType = "propertyAccess"
)

// Valid reports whether the release type is one of the known waivers.
func (t ReleaseType) Valid() bool {
	return t == ReleaseTypeVolunteer || t == ReleaseTypePropertyAccess
}

// LegalRelease is a liability waiver attached to a user. Volunteer releases
// are stamped back onto the user's directory record so eligibility checks
// never need a second lookup.
type LegalRelease struct {
	ID                string      `json:"id"`
	UserID            string      `json:"userId"`
	ReleaseType       ReleaseType `json:"releaseType"`
	DocumentURL       string      `json:"documentUrl,omitempty"`
	AssessmentID      string      `json:"assessmentId,omitempty"`
	Signed            bool        `json:"signed"`
	SignedDigitally   bool        `json:"signedDigitally"`
	SignatureImageURL string      `json:"signatureImageUrl,omitempty"`
	SignedAt          *time.Time  `json:"signedAt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// Store persists legal releases.
type Store interface {
	Create(ctx context.Context, r *LegalRelease) error
	Find(ctx context.Context, id string) (*LegalRelease, error)

	// MarkSigned stamps signed, signedDigitally, signedAt and the optional
	// signature image.
	MarkSigned(ctx context.Context, id string, at time.Time, signatureImageURL string) error
}
