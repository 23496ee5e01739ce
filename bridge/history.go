// Implements the HistoryLedger, a fixed-capacity circular log of past
// request outcomes. The feature extractor and the failure predictor read
// recency and failure statistics from it.

package bridge

import "sync"

// HistoryRecord captures the outcome of one completed request.
// Written exactly once per completion; overwritten circularly after the
// ledger fills.
type HistoryRecord struct {
	Pattern   uint32   // (type << 24) | (device_id & 0xFFFFFF) fingerprint
	Decision  Decision // decision that was acted on
	LatencyUs uint32   // observed latency
	Success   bool     // whether the downstream operation succeeded
}

// PatternOf builds the ledger fingerprint for a request.
func PatternOf(r *Request) uint32 {
	return uint32(r.Type)<<24 | (r.DeviceID & 0xFFFFFF)
}

// patternType extracts the request type from a fingerprint.
func patternType(pattern uint32) RequestType {
	return RequestType(pattern >> 24)
}

// HistoryLedger is a fixed-capacity circular buffer of HistoryRecords with
// a strictly monotonic write index. Appends are O(1); queries take a read
// lock so they always observe whole records, never torn ones.
type HistoryLedger struct {
	mu      sync.RWMutex
	records []HistoryRecord
	writes  uint64 // total appends ever; write slot is writes % capacity
}

// NewHistoryLedger creates a ledger holding up to capacity records.
func NewHistoryLedger(capacity int) *HistoryLedger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &HistoryLedger{records: make([]HistoryRecord, capacity)}
}

// Capacity returns the fixed record capacity.
func (l *HistoryLedger) Capacity() int {
	return len(l.records)
}

// Append records an outcome, overwriting the oldest entry once full.
func (l *HistoryLedger) Append(rec HistoryRecord) {
	l.mu.Lock()
	l.records[l.writes%uint64(len(l.records))] = rec
	l.writes++
	l.mu.Unlock()
}

// Len returns the number of records currently held:
// min(capacity, total writes).
func (l *HistoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lenLocked()
}

func (l *HistoryLedger) lenLocked() int {
	if l.writes < uint64(len(l.records)) {
		return int(l.writes)
	}
	return len(l.records)
}

// Writes returns the total number of appends ever made.
func (l *HistoryLedger) Writes() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.writes
}

// At returns the record at the given slot index. Test/inspection helper;
// slot layout is (logicalPosition-1) mod capacity.
func (l *HistoryLedger) At(slot int) HistoryRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records[slot]
}

// TypeFraction returns the fraction of the last `window` entries whose
// request type matches t. The denominator is the window size, not the
// number of records present, so a sparse ledger yields a proportionally
// small fraction. Returns 0 when the ledger is empty.
func (l *HistoryLedger) TypeFraction(t RequestType, window int) float64 {
	if window <= 0 {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.lenLocked()
	if n == 0 {
		return 0
	}
	if n > window {
		n = window
	}
	matches := 0
	for i := 0; i < n; i++ {
		idx := (l.writes - 1 - uint64(i)) % uint64(len(l.records))
		if patternType(l.records[idx].Pattern) == t {
			matches++
		}
	}
	return float64(matches) / float64(window)
}

// AvgLatencyUs returns the mean latency of the last `window` entries, or
// 0 with ok=false when the ledger is empty. Callers that feed the model
// substitute a neutral prior for the empty case.
func (l *HistoryLedger) AvgLatencyUs(window int) (avg float64, ok bool) {
	if window <= 0 {
		return 0, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.lenLocked()
	if n == 0 {
		return 0, false
	}
	if n > window {
		n = window
	}
	var sum uint64
	for i := 0; i < n; i++ {
		idx := (l.writes - 1 - uint64(i)) % uint64(len(l.records))
		sum += uint64(l.records[idx].LatencyUs)
	}
	return float64(sum) / float64(n), true
}

// FailureRate returns failures/total over all held records of the given
// type. With no data for the type it returns 0.5: a neutral prior, never
// 0.0 or 1.0, so the absence of history does not bias decisions toward
// either extreme.
func (l *HistoryLedger) FailureRate(t RequestType) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	failures, total := 0, 0
	n := l.lenLocked()
	for i := 0; i < n; i++ {
		rec := &l.records[i]
		if patternType(rec.Pattern) != t {
			continue
		}
		total++
		if !rec.Success {
			failures++
		}
	}
	if total == 0 {
		return 0.5
	}
	return float64(failures) / float64(total)
}

// snapshotLocked copies the raw ring contents for serialization.
// Caller must hold at least a read lock via the exported wrapper.
func (l *HistoryLedger) snapshot() (records []HistoryRecord, writes uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records = make([]HistoryRecord, len(l.records))
	copy(records, l.records)
	return records, l.writes
}

// restore replaces the ring contents wholesale. Used by model load after
// the file has been fully validated.
func (l *HistoryLedger) restore(records []HistoryRecord, writes uint64) {
	l.mu.Lock()
	l.records = records
	l.writes = writes
	l.mu.Unlock()
}
