package trace

import (
	"math"
	"testing"
)

func TestSummarize_NilTrace(t *testing.T) {
	// GIVEN no trace at all
	s := Summarize(nil)

	// THEN the summary is a well-formed zero value
	if s.TotalDecisions != 0 || s.TotalBatches != 0 {
		t.Errorf("nil trace summary: %+v", s)
	}
	if s.ByDecision == nil {
		t.Error("ByDecision map not initialized")
	}
}

func TestSummarize_EmptyTrace(t *testing.T) {
	s := Summarize(NewEngineTrace(0))
	if s.TotalDecisions != 0 || s.MeanConfidence != 0 || s.MeanBatchSize != 0 {
		t.Errorf("empty trace summary: %+v", s)
	}
}

func TestSummarize_Aggregates(t *testing.T) {
	// GIVEN a trace with mixed decisions and two batches
	tr := NewEngineTrace(0)
	tr.RecordDecision(DecisionRecord{Decision: "pass_through", Confidence: 0.8, Batched: true})
	tr.RecordDecision(DecisionRecord{Decision: "pass_through", Confidence: 0.6})
	tr.RecordDecision(DecisionRecord{Decision: "reject", Confidence: 0.4})
	tr.RecordBatch(2)
	tr.RecordBatch(4)

	// WHEN summarized
	s := Summarize(tr)

	// THEN counts, means, and fractions match
	if s.TotalDecisions != 3 {
		t.Errorf("TotalDecisions: got %d, want 3", s.TotalDecisions)
	}
	if s.ByDecision["pass_through"] != 2 || s.ByDecision["reject"] != 1 {
		t.Errorf("ByDecision: %v", s.ByDecision)
	}
	if math.Abs(s.MeanConfidence-0.6) > 1e-9 {
		t.Errorf("MeanConfidence: got %v, want 0.6", s.MeanConfidence)
	}
	if math.Abs(s.BatchedFraction-1.0/3.0) > 1e-9 {
		t.Errorf("BatchedFraction: got %v, want 1/3", s.BatchedFraction)
	}
	if s.TotalBatches != 2 || s.MeanBatchSize != 3 {
		t.Errorf("batches: got %d with mean %v", s.TotalBatches, s.MeanBatchSize)
	}
}
