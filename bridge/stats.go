// Tracks engine-wide counters: totals, per-direction traffic, prediction
// outcomes, and a moving-average latency.

package bridge

import (
	"fmt"
	"math"
	"sync"
)

// emaAlpha is the exponential moving average weight for new latency
// samples: new = old*(1-alpha) + sample*alpha.
const emaAlpha = 0.1

// StatsSnapshot is a point-in-time copy of the aggregate counters.
type StatsSnapshot struct {
	TotalRequests uint64 // submit/process attempts, including rejected ones
	Forwarded     uint64 // requests handed to the downstream transport
	Responses     uint64 // successful downstream completions
	Optimized     uint64 // requests rewritten by the optimizer before forwarding
	Batched       uint64 // requests the model flagged for batching
	Successes     uint64 // recorded successful outcomes
	Failures      uint64 // recorded failed outcomes (rejects and errors included)
	Accuracy      float64
	AvgLatencyUs  uint32
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("Stats: (Total: %d, Forwarded: %d, Failures: %d, Accuracy: %.2f, AvgLatency: %dus)",
		s.TotalRequests, s.Forwarded, s.Failures, s.Accuracy, s.AvgLatencyUs)
}

// StatsAggregator holds the cumulative counters behind a single mutex.
// Snapshot copies everything under one critical section and performs no
// mutation, so two snapshots with no intervening updates are identical.
type StatsAggregator struct {
	mu sync.Mutex

	total     uint64
	forwarded uint64
	responses uint64
	optimized uint64
	batched   uint64
	successes uint64
	failures  uint64

	avgLatencyUs float64
	avgSet       bool
}

// NewStatsAggregator returns a zeroed aggregator.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{}
}

// RecordSubmitted counts a request entering the engine, whether or not it
// is ultimately admitted.
func (s *StatsAggregator) RecordSubmitted() {
	s.mu.Lock()
	s.total++
	s.mu.Unlock()
}

// RecordError counts a recoverable caller-visible error (backpressure,
// invalid argument) as a failure for observability.
func (s *StatsAggregator) RecordError() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// RecordForwarded counts a request handed to the downstream transport.
func (s *StatsAggregator) RecordForwarded(optimized, batched bool) {
	s.mu.Lock()
	s.forwarded++
	if optimized {
		s.optimized++
	}
	if batched {
		s.batched++
	}
	s.mu.Unlock()
}

// RecordRejected counts a model Reject decision. No latency sample exists,
// so the moving average is untouched.
func (s *StatsAggregator) RecordRejected() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

// RecordOutcome updates success/failure counts and folds the latency
// sample into the moving average. The first sample seeds the average.
func (s *StatsAggregator) RecordOutcome(success bool, latencyUs uint32) {
	s.mu.Lock()
	if success {
		s.successes++
		s.responses++
	} else {
		s.failures++
	}
	if !s.avgSet {
		s.avgLatencyUs = float64(latencyUs)
		s.avgSet = true
	} else {
		s.avgLatencyUs = s.avgLatencyUs*(1-emaAlpha) + float64(latencyUs)*emaAlpha
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters under a single critical section.
func (s *StatsAggregator) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalRequests: s.total,
		Forwarded:     s.forwarded,
		Responses:     s.responses,
		Optimized:     s.optimized,
		Batched:       s.batched,
		Successes:     s.successes,
		Failures:      s.failures,
		AvgLatencyUs:  uint32(math.Round(s.avgLatencyUs)),
	}
	if outcomes := s.successes + s.failures; outcomes > 0 {
		snap.Accuracy = float64(s.successes) / float64(outcomes)
	}
	return snap
}

// statsState is the serializable form used by model save/load.
type statsState struct {
	Total        uint64
	Forwarded    uint64
	Responses    uint64
	Optimized    uint64
	Batched      uint64
	Successes    uint64
	Failures     uint64
	AvgLatencyUs float64
	AvgSet       uint8
}

func (s *StatsAggregator) state() statsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := statsState{
		Total:        s.total,
		Forwarded:    s.forwarded,
		Responses:    s.responses,
		Optimized:    s.optimized,
		Batched:      s.batched,
		Successes:    s.successes,
		Failures:     s.failures,
		AvgLatencyUs: s.avgLatencyUs,
	}
	if s.avgSet {
		st.AvgSet = 1
	}
	return st
}

func (s *StatsAggregator) restore(st statsState) {
	s.mu.Lock()
	s.total = st.Total
	s.forwarded = st.Forwarded
	s.responses = st.Responses
	s.optimized = st.Optimized
	s.batched = st.Batched
	s.successes = st.Successes
	s.failures = st.Failures
	s.avgLatencyUs = st.AvgLatencyUs
	s.avgSet = st.AvgSet != 0
	s.mu.Unlock()
}
