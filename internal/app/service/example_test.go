package service_test

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/app/service"
	"github.com/mkarpov/linkstore/internal/bloom"
	"github.com/mkarpov/linkstore/internal/storage"
	"github.com/mkarpov/linkstore/internal/worker"
)

// Example wires the full core together against the in-memory store: the
// write service feeding the snapshot worker, and a resolver reading
// through the unioned code namespace.
func Example() {
	ctx, cancel := context.WithCancel(context.Background())

	store, _ := storage.CreateMemoryStorage()

	filter := bloom.New(1000, 0.01)
	w := worker.NewSnapshotWorker(zap.NewNop(), store, filter, "codes", time.Second, 2)
	go w.Run(ctx)

	svc := service.NewLink(store, service.NewRandomCodeGenerator(6), zap.NewNop(), w.GetInChannel())
	resolver := service.NewCodeResolver(store, nil, zap.NewNop())

	outcome, record, _ := svc.Shorten(ctx, "https://example.com")
	fmt.Println(outcome, record.ID)

	// The same content dedups to the first record.
	outcome, record, _ = svc.Shorten(ctx, "https://example.com")
	fmt.Println(outcome, record.ID)

	_ = svc.AddAlias(ctx, "docs", record.ID)

	original, _ := resolver.Resolve(ctx, "docs")
	fmt.Println(original)

	cancel()
	// Output:
	// created 1
	// existing 1
	// https://example.com
}
