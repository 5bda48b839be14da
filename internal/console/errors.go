package console

import (
	"errors"
	"fmt"
)

// ErrCommitInFlight is returned when an edit is started while a commit is pending.
var ErrCommitInFlight = errors.New("console: a quantity commit is still in flight")

// ErrNotEditing is returned when an edit operation runs with no open edit.
var ErrNotEditing = errors.New("console: no row is being edited")

// FetchError reports a failed catalog refresh or ledger query.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MutationError reports a write the remote service rejected.
type MutationError struct {
	Op        string
	ProductID string
	Err       error
}

func (e *MutationError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ProductID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// ExportError reports a failed report download. No file is left behind.
type ExportError struct {
	Kind string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Kind, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
