package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/bloom"
	"github.com/mkarpov/linkstore/internal/storage"
)

func TestSnapshotWorker_FlushOnThreshold(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	filter := bloom.New(100, 0.01)
	w := NewSnapshotWorker(zap.NewNop(), store, filter, "codes", time.Hour, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	in := w.GetInChannel()
	in <- "aaa111"
	in <- "ccc333"

	require.Eventually(t, func() bool {
		_, err := store.LoadSnapshot(context.Background(), "codes")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	snapshot, err := store.LoadSnapshot(context.Background(), "codes")
	require.NoError(t, err)

	restored, err := bloom.FromSnapshot(snapshot.Data)
	require.NoError(t, err)
	assert.True(t, restored.Test("aaa111"))
	assert.True(t, restored.Test("ccc333"))
	assert.False(t, restored.Test("zzz999"))
}

func TestSnapshotWorker_FinalFlushOnCancel(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	filter := bloom.New(100, 0.01)
	w := NewSnapshotWorker(zap.NewNop(), store, filter, "codes", time.Hour, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.GetInChannel() <- "aaa111"

	// Below the threshold, so only cancellation forces the write.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	snapshot, err := store.LoadSnapshot(context.Background(), "codes")
	require.NoError(t, err)

	restored, err := bloom.FromSnapshot(snapshot.Data)
	require.NoError(t, err)
	assert.True(t, restored.Test("aaa111"))
}

func TestSnapshotWorker_ReplacementNotMerge(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	require.NoError(t, store.SaveSnapshot(context.Background(), "codes", []byte{1, 2, 3}))

	filter := bloom.New(100, 0.01)
	w := NewSnapshotWorker(zap.NewNop(), store, filter, "codes", time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.GetInChannel() <- "aaa111"

	require.Eventually(t, func() bool {
		snapshot, err := store.LoadSnapshot(context.Background(), "codes")
		return err == nil && len(snapshot.Data) > 3
	}, 2*time.Second, 10*time.Millisecond)

	snapshot, err := store.LoadSnapshot(context.Background(), "codes")
	require.NoError(t, err)

	// The old payload is gone entirely; the new one is a valid filter.
	restored, err := bloom.FromSnapshot(snapshot.Data)
	require.NoError(t, err)
	assert.True(t, restored.Test("aaa111"))
}

func TestLoadFilter_FromStoredSnapshot(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	original := bloom.New(100, 0.01)
	original.Add("aaa111")
	data, err := original.Snapshot()
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(context.Background(), "codes", data))

	filter, err := LoadFilter(context.Background(), store, "codes", 100, 0.01, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, filter.Test("aaa111"))
	assert.False(t, filter.Test("zzz999"))
}

func TestLoadFilter_FreshWhenAbsent(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	filter, err := LoadFilter(context.Background(), store, "neverSaved", 100, 0.01, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, filter)
	assert.False(t, filter.Test("anything"))
}

func TestScanCodes(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	ctx := context.Background()
	_, r1, err := store.Upsert(ctx, "aaa111", "https://one.example")
	require.NoError(t, err)
	_, _, err = store.Upsert(ctx, "bbb222", "https://two.example")
	require.NoError(t, err)
	require.NoError(t, store.AddAlias(ctx, "ccc333", r1.ID))

	out := make(chan string, 16)

	total, err := ScanCodes(ctx, store, out)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "aaa111", <-out)
	assert.Equal(t, "bbb222", <-out)
	assert.Equal(t, "ccc333", <-out)

	// A canonical code added later sorts ahead of the alias; the next
	// full scan still covers everything.
	_, _, err = store.Upsert(ctx, "ddd444", "https://three.example")
	require.NoError(t, err)

	total, err = ScanCodes(ctx, store, out)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"aaa111", "bbb222", "ddd444", "ccc333"},
		[]string{<-out, <-out, <-out, <-out})
	assert.Empty(t, out)
}
