package tenant

import "errors"

var (
	// ErrInputLengthMismatch is returned by Push when vectors and ids differ in length.
	ErrInputLengthMismatch = errors.New("tenant: vectors and ids length mismatch")

	// ErrNoIndex is returned by operations that need data when a tenant has none.
	ErrNoIndex = errors.New("tenant: no index")
)
