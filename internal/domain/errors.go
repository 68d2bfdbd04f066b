package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced across package boundaries.
var (
	// ErrUnauthenticated is returned when a write operation has no owner id.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoOutput means the generation API accepted the request but zero
	// usable media items resulted after per-item transfer failures.
	ErrNoOutput = errors.New("no usable media produced")
	// ErrNotFound is returned for owner-scoped lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrTerminalState guards against transitions out of a terminal status.
	ErrTerminalState = errors.New("record is in a terminal state")
)

// ValidationError names the offending request field. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GenerationError carries the upstream status and message verbatim so the
// caller can surface provider diagnostics without translation.
type GenerationError struct {
	StatusCode int
	Message    string
}

func (e *GenerationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation api status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation api status %d: %s", e.StatusCode, e.Message)
}

// TransferError is the isolated failure of one media item's download/upload
// round trip. It never aborts sibling items.
type TransferError struct {
	Stage string // "download" or "upload"
	URL   string
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed record write. Fatal when the prompt row
// cannot be created, isolated when a single media row fails.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
