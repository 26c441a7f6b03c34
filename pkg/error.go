package pkg

import (
	"fmt"
	"slices"
	"strings"
)

// Error represents a chain of errors, innermost first.
type Error []error

// ErrReadInput is returned when reading template or config input fails.
var ErrReadInput = MakeErrorf("failed to read input")

// ErrWriteOutput is returned when writing command output fails.
var ErrWriteOutput = MakeErrorf("failed to write output")

// ErrInvalidFormat is returned when an unsupported output format is requested.
var ErrInvalidFormat = MakeErrorf("invalid format")

// ErrExists is returned when a command refuses to overwrite an existing file.
var ErrExists = MakeErrorf("file exists")

// MakeError constructs an Error from the given errors.
// The first argument is the innermost error in the chain.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted error message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the chain with ": ", innermost first.
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range slices.All(e) {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap appends one or more errors to the receiver and returns the result.
func (e Error) Wrap(err ...error) Error {
	return append(slices.Clip(e), err...)
}

// Wrapf appends a formatted error to the receiver and returns the result.
func (e Error) Wrapf(format string, args ...any) Error {
	return append(slices.Clip(e), fmt.Errorf(format, args...))
}

// Is reports whether target is a prefix of the receiver's chain, so that
// errors.Is(ErrReadInput.Wrap(err), ErrReadInput) holds.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 || len(t) > len(e) {
		return false
	}

	for i := range t {
		if e[i] != t[i] {
			return false
		}
	}

	return true
}

// Unwrap returns the slice of errors contained in the receiver.
func (e Error) Unwrap() []error {
	return e
}

// UnwrapErrors recursively flattens an error tree, innermost first.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	chain := Error{}

	if e, ok := err.(interface{ Unwrap() []error }); ok {
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	} else if e, ok := err.(interface{ Unwrap() error }); ok {
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
