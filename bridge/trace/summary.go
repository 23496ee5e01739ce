package trace

// TraceSummary aggregates statistics from an EngineTrace.
type TraceSummary struct {
	TotalDecisions  int
	ByDecision      map[string]int // decision class name → count
	MeanConfidence  float64
	BatchedFraction float64
	TotalBatches    int
	MeanBatchSize   float64
}

// Summarize computes aggregate statistics from an EngineTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(t *EngineTrace) *TraceSummary {
	summary := &TraceSummary{
		ByDecision: make(map[string]int),
	}
	if t == nil {
		return summary
	}

	decisions := t.Decisions()
	summary.TotalDecisions = len(decisions)
	if len(decisions) > 0 {
		confidenceSum := 0.0
		batched := 0
		for _, d := range decisions {
			summary.ByDecision[d.Decision]++
			confidenceSum += d.Confidence
			if d.Batched {
				batched++
			}
		}
		summary.MeanConfidence = confidenceSum / float64(len(decisions))
		summary.BatchedFraction = float64(batched) / float64(len(decisions))
	}

	batches := t.Batches()
	summary.TotalBatches = len(batches)
	if len(batches) > 0 {
		sizeSum := 0
		for _, b := range batches {
			sizeSum += b.Size
		}
		summary.MeanBatchSize = float64(sizeSum) / float64(len(batches))
	}
	return summary
}
