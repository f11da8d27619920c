package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that a lookup target is absent from every
	// namespace. "Never existed" and "removed" are indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports a uniqueness violation on a public code
	// (canonical code or alias code). It is distinct from digest-based
	// dedup, which is a normal OutcomeExisting, not an error. The caller
	// is expected to retry with a freshly generated code.
	ErrDuplicate = errors.New("duplicate code")
)

// QueryError wraps any store-level failure that is not part of the error
// taxonomy above. It keeps enough context to diagnose without leaking raw
// driver internals into callers' control flow.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ConnectionError reports that the store is unreachable or misconfigured.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// MigrationError reports a schema setup failure.
type MigrationError struct {
	Err error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("schema migration: %v", e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }
