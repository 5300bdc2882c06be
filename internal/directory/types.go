package directory

import "time"

// Role is a capability a user can hold. Operations are gated on approved
// roles only; requestedRoles never grant anything.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleAssessor      Role = "assessor"
	RoleWorkGroupLead Role = "workGroupLead"
	RoleWorker        Role = "worker"
	RoleThirdParty    Role = "thirdParty"
)

// Valid reports whether the role is one of the known capabilities.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleAssessor, RoleWorkGroupLead, RoleWorker, RoleThirdParty:
		return true
	}
	return false
}

// ApprovalStatus tracks the administrator decision on requested roles.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Communication preferences for the messaging relay.
const (
	PreferEmail = "email"
	PreferSMS   = "sms"
)

// User is a registered volunteer or coordinator. The record id is always the
// authenticated principal's id, never client-supplied.
type User struct {
	ID                      string         `json:"id"`
	Email                   string         `json:"email"`
	PhoneNumber             string         `json:"phoneNumber"`
	CommunicationPreference string         `json:"communicationPreference"`
	Roles                   []Role         `json:"roles"`
	RequestedRoles          []Role         `json:"requestedRoles,omitempty"`
	RoleApprovalStatus      ApprovalStatus `json:"roleApprovalStatus"`
	GroupIDs                []string       `json:"groupIds,omitempty"`
	CenterIDs               []string       `json:"centerIds,omitempty"`
	LegalReleaseID          string         `json:"legalReleaseId,omitempty"`
	LegalReleaseSigned      bool           `json:"legalReleaseSigned"`
	CreatedAt               time.Time      `json:"createdAt"`
	UpdatedAt               time.Time      `json:"updatedAt"`
}

// HasRole reports whether the user's approved roles include role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the intersection of the user's approved roles
// and the given set is non-empty.
func (u *User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// Filter narrows List results.
type Filter struct {
	Role     Role
	GroupID  string
	CenterID string
	Limit    int
}
