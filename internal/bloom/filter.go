// Package bloom wraps the probabilistic membership filter used to
// short-circuit resolution of definitely-absent codes. The storage core
// only ever sees the serialized form as opaque bytes.
package bloom

import (
	"bytes"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a set-membership filter over short codes. False positives
// are possible, false negatives are not: a negative Test means the code
// was never added.
type Filter struct {
	f *bloom.BloomFilter
}

// New creates a filter sized for n expected codes at the given false
// positive rate.
func New(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// FromSnapshot reconstructs a filter from bytes produced by Snapshot.
func FromSnapshot(data []byte) (*Filter, error) {
	var f bloom.BloomFilter
	if _, err := f.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &Filter{f: &f}, nil
}

// Add records a code in the filter.
func (f *Filter) Add(code string) {
	f.f.AddString(code)
}

// Test reports whether the code might have been added.
func (f *Filter) Test(code string) bool {
	return f.f.TestString(code)
}

// Snapshot serializes the filter state (bit array plus sizing metadata)
// for persistence.
func (f *Filter) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
