package trace

import "sync"

// EngineTrace collects decision and batch records during an engine run.
// Safe for concurrent recording; the dispatcher and synchronous callers
// may interleave.
type EngineTrace struct {
	mu        sync.Mutex
	decisions []DecisionRecord
	batches   []BatchRecord
	limit     int // 0 = unbounded
}

// NewEngineTrace creates a trace ready for recording. limit bounds the
// number of retained decision records (0 keeps everything).
func NewEngineTrace(limit int) *EngineTrace {
	return &EngineTrace{
		decisions: make([]DecisionRecord, 0),
		batches:   make([]BatchRecord, 0),
		limit:     limit,
	}
}

// RecordDecision appends a decision record, assigning its sequence
// number. Once the limit is reached further decisions are dropped.
func (t *EngineTrace) RecordDecision(record DecisionRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.limit > 0 && len(t.decisions) >= t.limit {
		return
	}
	record.Sequence = uint64(len(t.decisions))
	t.decisions = append(t.decisions, record)
}

// RecordBatch appends a batch boundary record.
func (t *EngineTrace) RecordBatch(size int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.batches = append(t.batches, BatchRecord{
		Sequence: uint64(len(t.batches)),
		Size:     size,
	})
}

// Decisions returns a copy of the recorded decisions.
func (t *EngineTrace) Decisions() []DecisionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DecisionRecord, len(t.decisions))
	copy(out, t.decisions)
	return out
}

// Batches returns a copy of the recorded batch boundaries.
func (t *EngineTrace) Batches() []BatchRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]BatchRecord, len(t.batches))
	copy(out, t.batches)
	return out
}
