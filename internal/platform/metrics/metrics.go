// Package metrics provides observability for the game server.
// Counters feed the /metrics endpoint and the tuning analyzer.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Economy operations
	Taps            int64
	TapLatencySum   int64 // nanoseconds
	TapLatencyMax   int64
	Purchases       int64
	BoosterActs     int64
	Claims          int64
	RejectedOps     int64 // typed domain failures (funds, energy, claims)
	ConflictRetries int64 // CAS retries that eventually succeeded
	ConflictFails   int64 // operations that exhausted retries

	// Storage
	StorageWrites    int64
	StorageLatSum    int64
	StorageLatMax    int64
	StorageErrors    int64
	LedgerAppends    int64
	LedgerAppendErrs int64

	// Cache
	CacheHits   int64
	CacheMisses int64

	// WebSocket
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTap records a completed tap and its end-to-end latency.
func (c *Collector) RecordTap(latency time.Duration) {
	atomic.AddInt64(&c.Taps, 1)
	atomic.AddInt64(&c.TapLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TapLatencyMax) {
		atomic.StoreInt64(&c.TapLatencyMax, int64(latency))
	}
}

// RecordPurchase records a successful upgrade purchase.
func (c *Collector) RecordPurchase() {
	atomic.AddInt64(&c.Purchases, 1)
}

// RecordBooster records a booster activation.
func (c *Collector) RecordBooster() {
	atomic.AddInt64(&c.BoosterActs, 1)
}

// RecordClaim records a claimed task or achievement tier.
func (c *Collector) RecordClaim() {
	atomic.AddInt64(&c.Claims, 1)
}

// RecordRejected records a typed domain failure surfaced to a caller.
func (c *Collector) RecordRejected() {
	atomic.AddInt64(&c.RejectedOps, 1)
}

// RecordConflictRetry records one CAS round that lost the race.
func (c *Collector) RecordConflictRetry() {
	atomic.AddInt64(&c.ConflictRetries, 1)
}

// RecordConflictFailure records an operation that gave up after
// exhausting its retry budget.
func (c *Collector) RecordConflictFailure() {
	atomic.AddInt64(&c.ConflictFails, 1)
}

// RecordStorageWrite records a player persistence round-trip.
func (c *Collector) RecordStorageWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.StorageWrites, 1)
	atomic.AddInt64(&c.StorageLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.StorageLatMax) {
		atomic.StoreInt64(&c.StorageLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.StorageErrors, 1)
	}
}

// RecordLedgerAppend records a ledger write-through.
func (c *Collector) RecordLedgerAppend(err error) {
	atomic.AddInt64(&c.LedgerAppends, 1)
	if err != nil {
		atomic.AddInt64(&c.LedgerAppendErrs, 1)
	}
}

// RecordCacheLookup records a stats cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	if hit {
		atomic.AddInt64(&c.CacheHits, 1)
	} else {
		atomic.AddInt64(&c.CacheMisses, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	taps := atomic.LoadInt64(&c.Taps)
	writes := atomic.LoadInt64(&c.StorageWrites)

	var tapAvg, writeAvg float64
	if taps > 0 {
		tapAvg = float64(atomic.LoadInt64(&c.TapLatencySum)) / float64(taps) / 1e6 // ms
	}
	if writes > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.StorageLatSum)) / float64(writes) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"economy": map[string]interface{}{
			"taps":               taps,
			"tap_avg_latency_ms": tapAvg,
			"tap_max_latency_ms": float64(atomic.LoadInt64(&c.TapLatencyMax)) / 1e6,
			"purchases":          atomic.LoadInt64(&c.Purchases),
			"booster_activation": atomic.LoadInt64(&c.BoosterActs),
			"claims":             atomic.LoadInt64(&c.Claims),
			"rejected_ops":       atomic.LoadInt64(&c.RejectedOps),
			"conflict_retries":   atomic.LoadInt64(&c.ConflictRetries),
			"conflict_failures":  atomic.LoadInt64(&c.ConflictFails),
		},

		"storage": map[string]interface{}{
			"writes":            writes,
			"avg_write_lat_ms":  writeAvg,
			"max_write_lat_ms":  float64(atomic.LoadInt64(&c.StorageLatMax)) / 1e6,
			"errors":            atomic.LoadInt64(&c.StorageErrors),
			"ledger_appends":    atomic.LoadInt64(&c.LedgerAppends),
			"ledger_append_err": atomic.LoadInt64(&c.LedgerAppendErrs),
		},

		"cache": map[string]interface{}{
			"hits":   atomic.LoadInt64(&c.CacheHits),
			"misses": atomic.LoadInt64(&c.CacheMisses),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP lunatap_taps_total Total successful taps\n")
		fmt.Fprintf(w, "# TYPE lunatap_taps_total counter\n")
		fmt.Fprintf(w, "lunatap_taps_total %d\n\n", atomic.LoadInt64(&c.Taps))

		fmt.Fprintf(w, "# HELP lunatap_purchases_total Total upgrade purchases\n")
		fmt.Fprintf(w, "# TYPE lunatap_purchases_total counter\n")
		fmt.Fprintf(w, "lunatap_purchases_total %d\n\n", atomic.LoadInt64(&c.Purchases))

		fmt.Fprintf(w, "# HELP lunatap_claims_total Total claimed task and achievement rewards\n")
		fmt.Fprintf(w, "# TYPE lunatap_claims_total counter\n")
		fmt.Fprintf(w, "lunatap_claims_total %d\n\n", atomic.LoadInt64(&c.Claims))

		fmt.Fprintf(w, "# HELP lunatap_conflict_retries_total CAS rounds lost to a concurrent writer\n")
		fmt.Fprintf(w, "# TYPE lunatap_conflict_retries_total counter\n")
		fmt.Fprintf(w, "lunatap_conflict_retries_total %d\n\n", atomic.LoadInt64(&c.ConflictRetries))

		fmt.Fprintf(w, "# HELP lunatap_conflict_failures_total Operations that exhausted CAS retries\n")
		fmt.Fprintf(w, "# TYPE lunatap_conflict_failures_total counter\n")
		fmt.Fprintf(w, "lunatap_conflict_failures_total %d\n\n", atomic.LoadInt64(&c.ConflictFails))

		fmt.Fprintf(w, "# HELP lunatap_storage_write_lat_max_ms Maximum player write latency\n")
		fmt.Fprintf(w, "# TYPE lunatap_storage_write_lat_max_ms gauge\n")
		fmt.Fprintf(w, "lunatap_storage_write_lat_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.StorageLatMax))/1e6)

		fmt.Fprintf(w, "# HELP lunatap_storage_errors_total Total player write errors\n")
		fmt.Fprintf(w, "# TYPE lunatap_storage_errors_total counter\n")
		fmt.Fprintf(w, "lunatap_storage_errors_total %d\n\n", atomic.LoadInt64(&c.StorageErrors))

		fmt.Fprintf(w, "# HELP lunatap_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE lunatap_ws_connections gauge\n")
		fmt.Fprintf(w, "lunatap_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP lunatap_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE lunatap_ws_messages_total counter\n")
		fmt.Fprintf(w, "lunatap_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "lunatap_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP lunatap_cache_lookups_total Stats cache lookups\n")
		fmt.Fprintf(w, "# TYPE lunatap_cache_lookups_total counter\n")
		fmt.Fprintf(w, "lunatap_cache_lookups_total{result=\"hit\"} %d\n", atomic.LoadInt64(&c.CacheHits))
		fmt.Fprintf(w, "lunatap_cache_lookups_total{result=\"miss\"} %d\n", atomic.LoadInt64(&c.CacheMisses))
	}
}
