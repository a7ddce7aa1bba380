package rbac

import "errors"

var (
	// ErrUnknownRole is returned when a request carries a role outside the matrix.
	ErrUnknownRole = errors.New("rbac: unknown role")

	// ErrUnknownResource is returned when a request names an unmapped resource.
	ErrUnknownResource = errors.New("rbac: unknown resource")
)
