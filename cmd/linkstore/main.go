// Command linkstore is the snapshot maintenance process: it keeps the
// persisted bloom snapshot in step with the authoritative store.
// On start it seeds its filter from the stored snapshot (or fresh when
// none exists), then periodically rescans the unioned code namespace
// and feeds the codes to the snapshot worker, which persists
// full-replacement snapshots under the configured name. Consumers load
// the snapshot at startup to short-circuit lookups of definitely-absent
// codes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/config"
	"github.com/mkarpov/linkstore/internal/logger"
	"github.com/mkarpov/linkstore/internal/repository"
	"github.com/mkarpov/linkstore/internal/storage"
	"github.com/mkarpov/linkstore/internal/worker"
)

var buildVersion string
var buildDate string
var buildCommit string

func main() {
	options := config.Parse()

	log := logger.New()
	defer func() {
		_ = log.Log.Sync()
	}()

	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	zapLogger := log.Log

	zapLogger.Info("linkstore snapshot maintenance",
		zap.String("version", buildVersion),
		zap.String("date", buildDate),
		zap.String("commit", buildCommit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store

	if options.DatabaseDSN != "" {
		zapLogger.Info("using db", zap.String("dsn", options.DatabaseDSN))

		db, err := repository.InitDB(options.DatabaseDSN, zapLogger)
		if err != nil {
			zapLogger.Fatal("cannot connect", zap.Error(err))
		}
		defer db.Close()

		repo := repository.CreateLinkRepository(db, zapLogger)
		if err := repo.Migrate(ctx); err != nil {
			zapLogger.Fatal("cannot migrate", zap.Error(err))
		}
		store = repo
	} else {
		zapLogger.Info("using in memory storage")

		memory, err := storage.CreateMemoryStorage()
		if err != nil {
			zapLogger.Fatal("cannot create storage", zap.Error(err))
		}
		store = memory
	}

	filter, err := worker.LoadFilter(ctx, store, options.BloomName,
		options.BloomCapacity, options.BloomFPRate, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot load bloom snapshot", zap.Error(err))
	}

	w := worker.NewSnapshotWorker(zapLogger, store, filter, options.BloomName,
		options.FlushInterval, options.FlushThreshold)

	go scanLoop(ctx, store, w.GetInChannel(), options.FlushInterval, zapLogger)

	zapLogger.Info("snapshot maintenance running",
		zap.String("name", options.BloomName),
		zap.Duration("interval", options.FlushInterval))

	// Blocks until the signal context is cancelled; the worker drains
	// its channel and persists a final snapshot before returning.
	w.Run(ctx)

	zapLogger.Info("shut down")
}

// scanLoop feeds the worker a full rescan of the code namespace on
// every tick, picking up codes written by other processes.
func scanLoop(ctx context.Context, store worker.CodeLister, out chan<- string, interval time.Duration, zapLogger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		total, err := worker.ScanCodes(ctx, store, out)
		if err != nil && ctx.Err() == nil {
			zapLogger.Error("code scan failed", zap.Error(err))
		} else if err == nil {
			zapLogger.Info("code scan complete", zap.Int("codes", total))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
