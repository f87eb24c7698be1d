package runner

import (
	"errors"
	"fmt"
)

// ErrLaunch is returned when the toolkit process could not be started
// (executable missing, not executable, permission denied).
var ErrLaunch = errors.New("process launch failed")

// LaunchError carries the executable and the underlying start error.
type LaunchError struct {
	Executable string
	Err        error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrLaunch, e.Executable, e.Err)
}

// Unwrap exposes both ErrLaunch and the cause to errors.Is / errors.As.
func (e *LaunchError) Unwrap() []error {
	return []error{ErrLaunch, e.Err}
}
