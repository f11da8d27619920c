package service

import (
	"context"

	"github.com/mkarpov/linkstore/internal/storage"
)

// Storage is the slice of the store contract the services depend on.
type Storage interface {
	Upsert(ctx context.Context, code, original string) (storage.Outcome, *storage.URLRecord, error)
	FindByURL(ctx context.Context, original string) (*storage.URLRecord, error)
	ListCodes(ctx context.Context, offset, limit uint64) ([]string, error)
	AddAlias(ctx context.Context, aliasCode string, targetID int64) error
	Resolve(ctx context.Context, code string) (string, error)
	PingContext(ctx context.Context) error
}

// CodeGenerator supplies candidate short codes. Generated codes must be
// effectively unique; on storage.ErrDuplicate the caller regenerates.
type CodeGenerator interface {
	Generate() (string, error)
}
