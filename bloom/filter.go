// Package bloom provides content-fingerprint deduplication using Bloom
// filters. The ingest pipeline consults it before chunking to skip
// documents whose content hash was already indexed this run.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by content fingerprints.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a content fingerprint.
func (f *Filter) Add(fingerprint string) {
	f.f.AddString(fingerprint)
}

// Test returns true if the fingerprint might have been recorded.
// False positives are possible; false negatives are not.
func (f *Filter) Test(fingerprint string) bool {
	return f.f.TestString(fingerprint)
}

// EstimatedCount returns the approximate number of recorded items.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
