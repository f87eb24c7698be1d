package fgbio

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a request fails field validation.
	// Such requests never reach the toolkit.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInputUnavailable is returned when an input file is missing or
	// unreadable at validation time. It signals an environment problem
	// rather than a malformed request.
	ErrInputUnavailable = errors.New("input file unavailable")

	// ErrToolkitUnavailable is returned by Probe when the toolkit cannot be
	// run or does not identify itself.
	ErrToolkitUnavailable = errors.New("fgbio toolkit unavailable")
)

// FieldError describes a single rejected request field.
type FieldError struct {
	Field  string
	Reason string
	err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.err, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.err
}

func invalid(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...), err: ErrInvalidParameter}
}

func unavailable(field, format string, args ...any) error {
	return &FieldError{Field: field, Reason: fmt.Sprintf(format, args...), err: ErrInputUnavailable}
}
