// Package trace provides decision-trace recording for engine analysis.
// This package has no dependencies on bridge/ — it stores pure data types.
package trace

// DecisionRecord captures a single model decision as seen by the
// dispatcher or a synchronous caller.
type DecisionRecord struct {
	Sequence    uint64  // monotonically increasing per trace
	ClockNs     uint64  // engine monotonic clock at decision time
	DeviceID    uint32  // originating device
	RequestType string  // request type name
	Decision    string  // decision class name
	Confidence  float64 // probability of the chosen class
	Batched     bool    // model's batch hint
}

// BatchRecord captures one dispatcher batch boundary.
type BatchRecord struct {
	Sequence uint64 // batch ordinal
	Size     int    // requests captured in the batch
}
