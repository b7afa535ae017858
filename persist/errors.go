package persist

import (
	"errors"
	"fmt"
)

// ErrSerialization is returned when persisted files are corrupt, partial or
// inconsistent with each other.
var ErrSerialization = errors.New("persist: serialization error")

// SerializationError carries the offending path and cause.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("persist: %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Is matches ErrSerialization.
func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

func corrupt(path string, err error) error {
	return &SerializationError{Path: path, Err: err}
}
