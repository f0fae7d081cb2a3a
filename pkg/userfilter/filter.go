// Package userfilter provides a probabilistic screen over the set of known
// usernames. The login path is the hottest read in the service and most
// failed logins are for usernames that simply do not exist; a bloom filter
// answers "definitely no such account" without touching the ledger lock.
// A positive answer only means "maybe", so callers still consult the ledger.
package userfilter

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a bloom-backed set of usernames. Usernames are only ever added,
// matching the ledger, where accounts are never deleted.
type Filter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter

	totalQueries   uint64
	screened       uint64
	falsePositives uint64
}

// New creates a filter sized for the expected number of accounts at the
// given false positive rate. Zero or out-of-range arguments fall back to
// 10000 items at 1%.
func New(expectedItems uint, falsePositiveRate float64) *Filter {
	if expectedItems == 0 {
		expectedItems = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	return &Filter{filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate)}
}

// Add records a username as existing.
func (f *Filter) Add(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Add([]byte(username))
}

// MayExist reports whether username may have an account. False means the
// username definitely has none; true means the ledger must be asked.
func (f *Filter) MayExist(username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalQueries++
	if !f.filter.Test([]byte(username)) {
		f.screened++
		return false
	}
	return true
}

// RecordFalsePositive notes that a MayExist "maybe" turned out to be wrong.
func (f *Filter) RecordFalsePositive() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.falsePositives++
}

// Stats returns (total queries, screened negatives, false positives).
func (f *Filter) Stats() (uint64, uint64, uint64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.totalQueries, f.screened, f.falsePositives
}
