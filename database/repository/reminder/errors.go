package reminderRepo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by MarkExecuted when no pending row exists.
	ErrNotFound = errors.New("reminder not found")
	// ErrAlreadyExecuted is returned when a history row for the reminder already exists.
	ErrAlreadyExecuted = errors.New("reminder already executed")
)

// PersistenceError wraps a failure of the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("reminder store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
