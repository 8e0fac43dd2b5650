package adapter

import (
	"errors"
	"fmt"
)

// Sentinel conditions checked with errors.Is.
var (
	// ErrNotReady reports a generate call on an unloaded adapter.
	ErrNotReady = errors.New("adapter not ready")

	// ErrEmptyPrompt reports a blank or whitespace-only prompt.
	ErrEmptyPrompt = errors.New("prompt must be a non-empty string")
)

// Error wraps backend failures with adapter metadata.
type Error struct {
	Backend string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "adapter error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Backend, e.Op)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(backend, op string, err error) *Error {
	return &Error{Backend: backend, Op: op, Err: err}
}
