// Package fault defines the sentinel errors shared by every domain service.
// Services wrap them with context via fmt.Errorf("%w: ...") and the HTTP
// layer maps them to status codes with errors.Is.
package fault

import "errors"

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)
