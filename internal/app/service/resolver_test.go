package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkarpov/linkstore/internal/bloom"
	"github.com/mkarpov/linkstore/internal/storage"
)

func TestResolver_FilterShortCircuit(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = store.Upsert(ctx, "aaa111", "https://example.com")
	require.NoError(t, err)

	filter := bloom.New(100, 0.01)
	filter.Add("aaa111")

	resolver := NewCodeResolver(store, filter, zap.NewNop())

	url, err := resolver.Resolve(ctx, "aaa111")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	// Absent from the filter: answered without touching the store.
	_, err = resolver.Resolve(ctx, "zzz999")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResolver_NoFilter(t *testing.T) {
	store, err := storage.CreateMemoryStorage()
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = store.Upsert(ctx, "aaa111", "https://example.com")
	require.NoError(t, err)

	resolver := NewCodeResolver(store, nil, zap.NewNop())

	url, err := resolver.Resolve(ctx, "aaa111")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	_, err = resolver.Resolve(ctx, "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRandomCodeGenerator(t *testing.T) {
	gen := NewRandomCodeGenerator(6)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
		seen[code] = true
	}
	// 100 draws from a 62^6 space never collide in practice.
	assert.Len(t, seen, 100)
}

func TestRandomCodeGenerator_UniformCoverage(t *testing.T) {
	gen := NewRandomCodeGenerator(6)

	// Rejected bytes are redrawn, so codes stay full length and every
	// alphabet character shows up over enough draws.
	counts := make(map[rune]int)
	for i := 0; i < 500; i++ {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			counts[c]++
		}
	}

	assert.Len(t, counts, len(codeAlphabet))
}
