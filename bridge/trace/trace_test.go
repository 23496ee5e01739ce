package trace

import "testing"

func TestEngineTrace_AssignsSequenceNumbers(t *testing.T) {
	// GIVEN a trace receiving three decisions
	tr := NewEngineTrace(0)
	for i := 0; i < 3; i++ {
		tr.RecordDecision(DecisionRecord{Decision: "pass_through"})
	}

	// THEN sequence numbers are dense and ordered
	decisions := tr.Decisions()
	if len(decisions) != 3 {
		t.Fatalf("decisions: got %d, want 3", len(decisions))
	}
	for i, d := range decisions {
		if d.Sequence != uint64(i) {
			t.Errorf("decision %d: sequence %d", i, d.Sequence)
		}
	}
}

func TestEngineTrace_LimitDropsExcessDecisions(t *testing.T) {
	// GIVEN a trace limited to 5 decision records
	tr := NewEngineTrace(5)

	// WHEN 10 decisions arrive
	for i := 0; i < 10; i++ {
		tr.RecordDecision(DecisionRecord{Decision: "buffer"})
	}

	// THEN only the first 5 are kept
	if got := len(tr.Decisions()); got != 5 {
		t.Errorf("decisions under limit: got %d, want 5", got)
	}
}

func TestEngineTrace_BatchesUnbounded(t *testing.T) {
	// Batch records ignore the decision limit.
	tr := NewEngineTrace(1)
	for i := 1; i <= 4; i++ {
		tr.RecordBatch(i)
	}

	batches := tr.Batches()
	if len(batches) != 4 {
		t.Fatalf("batches: got %d, want 4", len(batches))
	}
	for i, b := range batches {
		if b.Size != i+1 {
			t.Errorf("batch %d: size %d, want %d", i, b.Size, i+1)
		}
	}
}

func TestEngineTrace_ReturnsCopies(t *testing.T) {
	// GIVEN a trace with one decision
	tr := NewEngineTrace(0)
	tr.RecordDecision(DecisionRecord{Decision: "optimize"})

	// WHEN a caller mutates the returned slice
	out := tr.Decisions()
	out[0].Decision = "mutated"

	// THEN the trace is unaffected
	if tr.Decisions()[0].Decision != "optimize" {
		t.Error("Decisions exposed internal storage")
	}
}
