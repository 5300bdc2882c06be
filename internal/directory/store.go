package directory

import "context"

// Store describes persistence operations required by the directory.
// Implementations must apply each method atomically per document.
type Store interface {
	// Put writes the full user document, overwriting any existing record
	// with the same id.
	Put(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, f Filter) ([]*User, error)

	// Patch merges the update document into the stored user and bumps
	// updatedAt. Callers are responsible for stripping protected fields.
	Patch(ctx context.Context, id string, updates map[string]any) error

	// SetRoles replaces the approved role list and the approval status.
	SetRoles(ctx context.Context, id string, roles []Role, status ApprovalStatus) error

	// SetApprovalStatus updates the approval status leaving roles untouched.
	SetApprovalStatus(ctx context.Context, id string, status ApprovalStatus) error

	// AddGroup and AddCenter union the id into the user's membership lists.
	AddGroup(ctx context.Context, userID, groupID string) error
	AddCenter(ctx context.Context, userID, centerID string) error

	// AttachLegalRelease records a newly created volunteer waiver on the
	// user; MarkReleaseSigned flips the signed flag once it is signed.
	AttachLegalRelease(ctx context.Context, userID, releaseID string) error
	MarkReleaseSigned(ctx context.Context, userID string) error
}
