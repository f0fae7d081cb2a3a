// Package memory provides an in-process metrics collector used by tests.
package memory

import (
	"sync"
	"time"
)

// OperationStats holds counts for one operation/outcome pair.
type OperationStats struct {
	Count     int64
	Latencies []time.Duration
}

// MemoryCollector implements metrics.Collector by keeping everything in
// process, queryable from tests.
type MemoryCollector struct {
	mu sync.RWMutex

	operations     map[string]map[string]*OperationStats
	transferVolume map[string]int64
	accountCount   int
	filterScreened int64
	filterPassed   int64
}

// NewMemoryCollector creates an empty in-memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		operations:     make(map[string]map[string]*OperationStats),
		transferVolume: make(map[string]int64),
	}
}

// RecordOperation records one operation outcome.
func (mc *MemoryCollector) RecordOperation(op string, outcome string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	byOutcome, ok := mc.operations[op]
	if !ok {
		byOutcome = make(map[string]*OperationStats)
		mc.operations[op] = byOutcome
	}
	stats, ok := byOutcome[outcome]
	if !ok {
		stats = &OperationStats{}
		byOutcome[outcome] = stats
	}
	stats.Count++
	stats.Latencies = append(stats.Latencies, duration)
}

// RecordTransferVolume records the amount moved or requested, by kind.
func (mc *MemoryCollector) RecordTransferVolume(kind string, amount int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.transferVolume[kind] += amount
}

// SetAccountCount records the current number of accounts.
func (mc *MemoryCollector) SetAccountCount(n int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.accountCount = n
}

// RecordFilterLookup records a username-filter probe.
func (mc *MemoryCollector) RecordFilterLookup(screened bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if screened {
		mc.filterScreened++
	} else {
		mc.filterPassed++
	}
}

// OperationCount returns the recorded count for an operation/outcome pair.
func (mc *MemoryCollector) OperationCount(op string, outcome string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if stats, ok := mc.operations[op][outcome]; ok {
		return stats.Count
	}
	return 0
}

// TransferVolume returns the total volume recorded for a transfer kind.
func (mc *MemoryCollector) TransferVolume(kind string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.transferVolume[kind]
}

// AccountCount returns the last recorded account count.
func (mc *MemoryCollector) AccountCount() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.accountCount
}

// FilterStats returns (screened, passed) filter probe counts.
func (mc *MemoryCollector) FilterStats() (int64, int64) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.filterScreened, mc.filterPassed
}
