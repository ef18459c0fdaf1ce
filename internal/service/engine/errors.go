package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnrecognizedIdentity means the lookup key has no identity document.
	// Process reports it as OutcomeSkipped, never as an error.
	ErrUnrecognizedIdentity = errors.New("identity not registered")

	// ErrMalformedInput means the event itself cannot be processed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrStoreUnavailable matches every failure to read or write a store.
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// UnavailableError wraps a store failure. errors.Is(err, ErrStoreUnavailable)
// holds for it while the original cause stays reachable.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func unavailable(err error, op string) error {
	return &UnavailableError{Op: op, Err: err}
}

func malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedInput, format, args...)
}
