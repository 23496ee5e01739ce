package bridge

import "testing"

func TestStatsAggregator_SnapshotIsIdempotent(t *testing.T) {
	// GIVEN an aggregator with mixed activity
	s := NewStatsAggregator()
	s.RecordSubmitted()
	s.RecordSubmitted()
	s.RecordForwarded(true, false)
	s.RecordOutcome(true, 100)
	s.RecordOutcome(false, 300)

	// WHEN two snapshots are taken with no updates between them
	first := s.Snapshot()
	second := s.Snapshot()

	// THEN they are identical
	if first != second {
		t.Errorf("consecutive snapshots differ: %+v vs %+v", first, second)
	}
}

func TestStatsAggregator_FirstLatencySampleSeedsAverage(t *testing.T) {
	// GIVEN a fresh aggregator
	s := NewStatsAggregator()

	// WHEN the first outcome arrives
	s.RecordOutcome(true, 500)

	// THEN the average equals the sample, not an alpha-scaled fraction
	if got := s.Snapshot().AvgLatencyUs; got != 500 {
		t.Errorf("first sample average: got %d, want 500", got)
	}
}

func TestStatsAggregator_MovingAverageConverges(t *testing.T) {
	// GIVEN a seeded average of 1000
	s := NewStatsAggregator()
	s.RecordOutcome(true, 1000)

	// WHEN many samples of 100 arrive
	for i := 0; i < 200; i++ {
		s.RecordOutcome(true, 100)
	}

	// THEN the average converges toward 100
	if got := s.Snapshot().AvgLatencyUs; got > 110 {
		t.Errorf("average after convergence: got %d, want <= 110", got)
	}
}

func TestStatsAggregator_Accuracy(t *testing.T) {
	// GIVEN 3 successes and 1 failure
	s := NewStatsAggregator()
	for i := 0; i < 3; i++ {
		s.RecordOutcome(true, 10)
	}
	s.RecordOutcome(false, 10)

	// THEN accuracy is successes over recorded outcomes
	if got := s.Snapshot().Accuracy; got != 0.75 {
		t.Errorf("accuracy: got %v, want 0.75", got)
	}
}

func TestStatsAggregator_RejectsSkipLatency(t *testing.T) {
	// GIVEN an aggregator that records a reject
	s := NewStatsAggregator()
	s.RecordRejected()

	// THEN the failure counts but the latency average is untouched
	snap := s.Snapshot()
	if snap.Failures != 1 {
		t.Errorf("failures: got %d, want 1", snap.Failures)
	}
	if snap.AvgLatencyUs != 0 {
		t.Errorf("average after reject: got %d, want 0", snap.AvgLatencyUs)
	}
}

func TestStatsAggregator_StateRoundTrip(t *testing.T) {
	// GIVEN an aggregator with activity
	s := NewStatsAggregator()
	s.RecordSubmitted()
	s.RecordForwarded(false, true)
	s.RecordOutcome(true, 250)

	// WHEN its state is restored into a fresh aggregator
	restored := NewStatsAggregator()
	restored.restore(s.state())

	// THEN the snapshots match
	if s.Snapshot() != restored.Snapshot() {
		t.Errorf("restored snapshot differs: %+v vs %+v", s.Snapshot(), restored.Snapshot())
	}
}
