// Package errors provides custom error types for the leadflow application.
//
// The store and the notification path never panic or crash the polling loop;
// every failure is converted into one of the types below at the operation
// boundary so callers can decide how to react:
//   - StoreUnavailableError: the backing table could not be reached
//   - TransportError: a chat message could not be delivered
//   - MalformedRowError: a scanned row was shorter than the schema
//   - ErrNotFound: a lookup or update target does not exist
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrNotFound is returned when a lookup or update targets a record id
// that is not present in the store. It is a normal, reportable outcome.
var ErrNotFound = stderrors.New("record not found")

// StoreUnavailableError indicates that the backing table is unreachable or
// misconfigured.
//
// This error is returned when:
//   - Credentials are missing or rejected
//   - The spreadsheet or database cannot be opened
//   - The remote API answers with a quota (429) or server error
//
// Recovery strategy: none inside the store; the caller decides whether to retry
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store unavailable: %s", e.Op)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// NewStoreUnavailableError creates a new store unavailable error with context
func NewStoreUnavailableError(op string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Op: op, Err: err}
}

// TransportError indicates that delivering a chat message failed.
//
// Recovery strategy: log and continue with the next recipient; never retried
// within the same poll cycle
type TransportError struct {
	ChatID int64
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s to %d: %v", e.Method, e.ChatID, e.Err)
}

// Unwrap returns the wrapped error for error chain inspection
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error with context
func NewTransportError(method string, chatID int64, err error) *TransportError {
	return &TransportError{ChatID: chatID, Method: method, Err: err}
}

// MalformedRowError reports a row shorter than the canonical column list.
// Missing trailing cells are read as empty strings, so this is informational.
type MalformedRowError struct {
	Row  int
	Got  int
	Want int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row %d: %d of %d cells", e.Row, e.Got, e.Want)
}

// NewMalformedRowError creates a new malformed row error
func NewMalformedRowError(row, got, want int) *MalformedRowError {
	return &MalformedRowError{Row: row, Got: got, Want: want}
}

// IsStoreUnavailable checks if the error chain contains a StoreUnavailableError
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return stderrors.As(err, &target)
}

// IsTransport checks if the error chain contains a TransportError
func IsTransport(err error) bool {
	var target *TransportError
	return stderrors.As(err, &target)
}

// IsMalformedRow checks if the error chain contains a MalformedRowError
func IsMalformedRow(err error) bool {
	var target *MalformedRowError
	return stderrors.As(err, &target)
}

// IsNotFound checks if the error chain contains ErrNotFound
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}
