// Package service provides the URL shortening and resolution services on
// top of a storage backend.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/bloom"
	"github.com/mkarpov/linkstore/internal/storage"
)

// CodeResolver is the read path. When constructed with a filter it
// answers definitely-absent codes from memory without a store
// round-trip; the filter is owned by the resolver as an immutable
// snapshot until it is explicitly replaced by a restart.
type CodeResolver struct {
	repository Storage
	filter     *bloom.Filter
	logger     *zap.Logger
}

// NewCodeResolver creates a resolver. filter may be nil, in which case
// every lookup goes to the store.
func NewCodeResolver(repo Storage, filter *bloom.Filter, logger *zap.Logger) *CodeResolver {
	return &CodeResolver{
		repository: repo,
		filter:     filter,
		logger:     logger,
	}
}

// Resolve returns the original URL for a canonical or alias code.
// Canonical codes win when both namespaces match. A negative filter
// answer is authoritative absence; a positive one still needs the store.
func (r *CodeResolver) Resolve(ctx context.Context, code string) (string, error) {
	if r.filter != nil && !r.filter.Test(code) {
		r.logger.Debug("filter ruled out code", zap.String("code", code))
		return "", storage.ErrNotFound
	}

	return r.repository.Resolve(ctx, code)
}
