// Package metrics defines the collector interface the HTTP adapter reports
// ledger activity through. Implementations export to a concrete backend:
// package memory keeps counts in process for test inspection, package
// prometheus exports to a Prometheus registry.
package metrics

import "time"

// Operation names reported by the adapter.
const (
	OpAccess          = "access"
	OpOpenAccount     = "open_account"
	OpLogin           = "login"
	OpSend            = "transfer_send"
	OpRequest         = "transfer_request"
	OpCompleteRequest = "complete_request"
	OpListAccounts    = "list_accounts"
)

// Collector receives ledger operation outcomes and gauges.
type Collector interface {
	// RecordOperation records one ledger operation with its outcome label
	// ("none" on success, an error class otherwise) and latency.
	RecordOperation(op string, outcome string, duration time.Duration)

	// RecordTransferVolume records the amount moved or requested, by kind.
	RecordTransferVolume(kind string, amount int64)

	// SetAccountCount records the current number of accounts.
	SetAccountCount(n int)

	// RecordFilterLookup records a username-filter probe; screened is true
	// when the filter answered "definitely absent" without a ledger lookup.
	RecordFilterLookup(screened bool)
}

// NoOpCollector is the default collector when metrics are not wanted.
type NoOpCollector struct{}

// RecordOperation does nothing.
func (NoOpCollector) RecordOperation(op string, outcome string, duration time.Duration) {}

// RecordTransferVolume does nothing.
func (NoOpCollector) RecordTransferVolume(kind string, amount int64) {}

// SetAccountCount does nothing.
func (NoOpCollector) SetAccountCount(n int) {}

// RecordFilterLookup does nothing.
func (NoOpCollector) RecordFilterLookup(screened bool) {}
