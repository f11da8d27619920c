// Package worker maintains the persisted bloom snapshot in the
// background so the write path never waits on filter persistence.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/bloom"
	"github.com/mkarpov/linkstore/internal/storage"
)

// SnapshotStore is the slice of the store the worker writes through.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, name string, data []byte) error
}

// SnapshotLoader reads a persisted snapshot back.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, name string) (*storage.BloomSnapshot, error)
}

// CodeLister pages through the unioned code namespace.
type CodeLister interface {
	ListCodes(ctx context.Context, offset, limit uint64) ([]string, error)
}

const (
	saveTimeout  = 3 * time.Second
	scanPageSize = 1000
)

// SnapshotWorker folds newly resolving codes into its own mutable
// filter and persists full-replacement snapshots, either when enough
// codes have accumulated or on a timer. It is the only writer of its
// snapshot name.
type SnapshotWorker struct {
	in        chan string
	filter    *bloom.Filter
	store     SnapshotStore
	name      string
	interval  time.Duration
	threshold int
	logger    *zap.Logger
}

func NewSnapshotWorker(logger *zap.Logger, store SnapshotStore, filter *bloom.Filter, name string, interval time.Duration, threshold int) *SnapshotWorker {
	return &SnapshotWorker{
		in:        make(chan string, 64),
		filter:    filter,
		store:     store,
		name:      name,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
	}
}

// GetInChannel returns the channel codes are published on.
func (w *SnapshotWorker) GetInChannel() chan<- string {
	return w.in
}

// Run loops until ctx is cancelled, then persists one final snapshot if
// anything is pending.
func (w *SnapshotWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	pending := 0

	flush := func() {
		data, err := w.filter.Snapshot()
		if err != nil {
			w.logger.Error("cannot serialize filter", zap.Error(err))
			return
		}

		saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		if err := w.store.SaveSnapshot(saveCtx, w.name, data); err != nil {
			w.logger.Error("cannot save bloom snapshot",
				zap.String("name", w.name),
				zap.Error(err))
			return
		}

		w.logger.Info("bloom snapshot saved",
			zap.String("name", w.name),
			zap.Int("codes", pending))
		pending = 0
	}

	for {
		select {
		case <-ctx.Done():
			// Drain anything still buffered before the final write.
			for {
				select {
				case code := <-w.in:
					w.filter.Add(code)
					pending++
				default:
					if pending > 0 {
						flush()
					}
					return
				}
			}
		case code := <-w.in:
			w.filter.Add(code)
			pending++
			if pending >= w.threshold {
				flush()
			}
		case <-ticker.C:
			if pending == 0 {
				continue
			}
			flush()
		}
	}
}

// LoadFilter reconstructs the worker's filter from the snapshot stored
// under name, or starts a fresh one when no snapshot exists yet.
func LoadFilter(ctx context.Context, store SnapshotLoader, name string, capacity uint, fpRate float64, logger *zap.Logger) (*bloom.Filter, error) {
	snapshot, err := store.LoadSnapshot(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info("no bloom snapshot yet, starting fresh", zap.String("name", name))
		return bloom.New(capacity, fpRate), nil
	}
	if err != nil {
		return nil, err
	}

	filter, err := bloom.FromSnapshot(snapshot.Data)
	if err != nil {
		return nil, err
	}

	logger.Info("bloom snapshot loaded",
		zap.String("name", name),
		zap.Time("updated_at", snapshot.UpdatedAt))
	return filter, nil
}

// ScanCodes pages through the whole code namespace and publishes every
// code seen, returning the count. Every scan starts from the beginning:
// canonical codes sort ahead of aliases, so resuming at a remembered
// offset could skip a code inserted in front of them. Republishing a
// code is harmless, adding to the filter is idempotent.
func ScanCodes(ctx context.Context, store CodeLister, out chan<- string) (int, error) {
	var offset uint64
	total := 0
	for {
		codes, err := store.ListCodes(ctx, offset, scanPageSize)
		if err != nil {
			return total, err
		}

		for _, code := range codes {
			select {
			case out <- code:
			case <-ctx.Done():
				return total, ctx.Err()
			}
			total++
		}
		offset += uint64(len(codes))

		if len(codes) < scanPageSize {
			return total, nil
		}
	}
}
