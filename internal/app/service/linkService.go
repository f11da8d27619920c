package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/storage"
)

// maxCodeAttempts bounds code regeneration on generator collisions.
const maxCodeAttempts = 5

// LinkService is the write path: it pairs the external code generator
// with the store's atomic upsert and owns the regenerate-on-collision
// retry policy the store deliberately does not have.
type LinkService struct {
	repository Storage
	generator  CodeGenerator
	logger     *zap.Logger
	added      chan<- string
}

// NewLink creates the service. added, when non-nil, receives every code
// that starts resolving (new canonical codes and aliases) so the
// snapshot worker can fold them into the membership filter.
func NewLink(repo Storage, generator CodeGenerator, logger *zap.Logger, added chan<- string) *LinkService {
	return &LinkService{
		repository: repo,
		generator:  generator,
		logger:     logger,
		added:      added,
	}
}

// Shorten stores the URL under a freshly generated code, or returns the
// already-stored record when the content is known. A code collision with
// a different URL means the generator must be retried with a new code;
// after maxCodeAttempts the duplicate error surfaces to the caller.
func (s *LinkService) Shorten(ctx context.Context, original string) (storage.Outcome, *storage.URLRecord, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return 0, nil, fmt.Errorf("generate code: %w", err)
		}

		outcome, record, err := s.repository.Upsert(ctx, code, original)
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.Info("short code already taken, regenerating",
				zap.String("code", code),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return 0, nil, err
		}

		if outcome == storage.OutcomeCreated {
			s.publish(record.Code)
		}
		return outcome, record, nil
	}

	return 0, nil, fmt.Errorf("no free code after %d attempts: %w", maxCodeAttempts, storage.ErrDuplicate)
}

// AddAlias registers an additional public name for an existing canonical
// record. The code is checked against the unioned namespace first so an
// alias can never shadow (or be shadowed by) a canonical code.
func (s *LinkService) AddAlias(ctx context.Context, aliasCode string, targetID int64) error {
	_, err := s.repository.Resolve(ctx, aliasCode)
	if err == nil {
		return storage.ErrDuplicate
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := s.repository.AddAlias(ctx, aliasCode, targetID); err != nil {
		return err
	}

	s.publish(aliasCode)
	return nil
}

// Lookup returns the canonical record for a URL's content.
func (s *LinkService) Lookup(ctx context.Context, original string) (*storage.URLRecord, error) {
	return s.repository.FindByURL(ctx, original)
}

// Codes enumerates the unioned code namespace.
func (s *LinkService) Codes(ctx context.Context, offset, limit uint64) ([]string, error) {
	return s.repository.ListCodes(ctx, offset, limit)
}

func (s *LinkService) PingContext(ctx context.Context) error {
	return s.repository.PingContext(ctx)
}

// publish hands a newly resolving code to the snapshot worker without
// blocking the write path. A dropped code stays out of the filter until
// the next full rebuild, so resolvers consulting the snapshot may report
// it absent during that window.
func (s *LinkService) publish(code string) {
	if s.added == nil {
		return
	}
	select {
	case s.added <- code:
	default:
		s.logger.Warn("snapshot worker backlog full, code not buffered", zap.String("code", code))
	}
}
