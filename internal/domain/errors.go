package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUndefinedRatio  = errors.New("ratio undefined")
	ErrEmptyWindow     = errors.New("no trades in window")
	ErrStockNotFound   = errors.New("stock not found")
)

// ValidationError reports the field that rejected construction of a trade or
// stock. It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (got %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
