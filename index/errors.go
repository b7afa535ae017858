package index

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBuilt is returned when an operation requires a built index.
	ErrNotBuilt = errors.New("index: not built")

	// ErrEmptyInput is returned when Build receives no vectors.
	ErrEmptyInput = errors.New("index: empty input")
)

// DimensionMismatchError indicates a vector whose length differs from the
// index dimension.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("index: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// IsDimensionMismatch reports whether err wraps a *DimensionMismatchError.
func IsDimensionMismatch(err error) bool {
	var dm *DimensionMismatchError
	return errors.As(err, &dm)
}
