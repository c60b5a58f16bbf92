// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// Exit codes reported by the kiln command line.
const (
	// ExitOK means the command completed without problems.
	ExitOK ExitCode = 0
	// ExitFailure is the generic failure code.
	ExitFailure ExitCode = 1
	// ExitConfiguration means the input was rejected before any network activity.
	ExitConfiguration ExitCode = 2
	// ExitUnresolved means a strict resolution left modules unresolved.
	ExitUnresolved ExitCode = 3
	// ExitPublish means a publication was rejected or only partially uploaded.
	ExitPublish ExitCode = 4
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status in the POSIX range 0-255.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside 0-255.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether the code signals success.
func (c ExitCode) IsSuccess() bool { return c == ExitOK }

// String returns the decimal representation.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
