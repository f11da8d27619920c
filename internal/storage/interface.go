package storage

import "context"

// Store is the contract every durable backend implements. All uniqueness
// enforcement is delegated to store-level constraints; no implementation
// may rely on callers serializing writes.
type Store interface {
	// Upsert inserts a canonical record for the URL's content digest, or
	// returns the existing one. Under concurrent upserts of the same URL
	// exactly one caller observes OutcomeCreated; every caller observes
	// the same winning record. A code collision with a different digest
	// returns ErrDuplicate.
	Upsert(ctx context.Context, code, original string) (Outcome, *URLRecord, error)

	// FindByURL returns the canonical record whose content digest matches
	// the URL, or ErrNotFound.
	FindByURL(ctx context.Context, original string) (*URLRecord, error)

	// ListCodes enumerates codes across the canonical and alias
	// namespaces in a stable order, windowed by offset and limit.
	ListCodes(ctx context.Context, offset, limit uint64) ([]string, error)

	// AddAlias registers an additional code for an existing canonical id.
	// Returns ErrDuplicate if the alias code is already taken.
	AddAlias(ctx context.Context, aliasCode string, targetID int64) error

	// Resolve returns the original URL for a canonical or alias code, or
	// ErrNotFound. Canonical codes take precedence.
	Resolve(ctx context.Context, code string) (string, error)

	// LoadSnapshot returns the bloom snapshot stored under name, or
	// ErrNotFound as the explicit absence marker.
	LoadSnapshot(ctx context.Context, name string) (*BloomSnapshot, error)

	// SaveSnapshot replaces the snapshot stored under name. Last writer
	// wins; a concurrent load never observes a partial payload.
	SaveSnapshot(ctx context.Context, name string, data []byte) error

	PingContext(ctx context.Context) error
}
