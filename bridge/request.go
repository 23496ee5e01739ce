// Defines the Request struct that models a single driver operation request
// flowing through the bridge, and the decision vocabulary the model emits.

package bridge

import "fmt"

// RequestType classifies a driver operation request.
type RequestType uint8

const (
	ReqIORead RequestType = iota
	ReqIOWrite
	ReqDMAAlloc
	ReqInterrupt
	ReqPCIConfig
	ReqPowerState
	ReqUnknown
)

// NumRequestTypes is the count of distinct request types, ReqUnknown included.
const NumRequestTypes = int(ReqUnknown) + 1

var requestTypeNames = map[RequestType]string{
	ReqIORead:     "io_read",
	ReqIOWrite:    "io_write",
	ReqDMAAlloc:   "dma_alloc",
	ReqInterrupt:  "interrupt",
	ReqPCIConfig:  "pci_config",
	ReqPowerState: "power_state",
	ReqUnknown:    "unknown",
}

func (t RequestType) String() string {
	if s, ok := requestTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("request_type(%d)", uint8(t))
}

// Valid reports whether t is within the known request type range.
func (t RequestType) Valid() bool {
	return t <= ReqUnknown
}

// MaxPriority is the highest admissible request priority.
const MaxPriority = 10

// Request models a single operation request submitted by a producer.
// Immutable once submitted: the queue and dispatcher copy it by value and
// never write back to the producer's copy.
type Request struct {
	Type      RequestType // operation kind
	DeviceID  uint32      // originating device
	Address   uint64      // target address (device-relative)
	Size      uint32      // transfer size in bytes
	Flags     uint32      // request flags (low byte is model-visible)
	Timestamp uint64      // monotonic nanoseconds at creation
	Priority  uint32      // 0 (lowest) .. MaxPriority
}

func (r Request) String() string {
	return fmt.Sprintf("Request: (Type: %s, Device: 0x%x, Addr: 0x%x, Size: %d, Priority: %d)",
		r.Type, r.DeviceID, r.Address, r.Size, r.Priority)
}

// Validate checks field ranges common to all entry points.
func (r *Request) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: request type %d out of range", ErrInvalidArgument, r.Type)
	}
	if r.Priority > MaxPriority {
		return fmt.Errorf("%w: priority %d exceeds %d", ErrInvalidArgument, r.Priority, MaxPriority)
	}
	return nil
}

// Decision is one of the six classes the model's softmax head selects.
type Decision uint8

const (
	DecisionPassThrough Decision = iota // pass directly downstream
	DecisionBuffer                      // buffer and batch
	DecisionOptimize                    // optimize before passing
	DecisionDefer                       // advisory: could be held for a later batch
	DecisionReject                      // reject invalid request
	DecisionRetry                       // advisory: retry with modifications
)

// NumDecisions is the width of the model's softmax head.
const NumDecisions = int(DecisionRetry) + 1

var decisionNames = map[Decision]string{
	DecisionPassThrough: "pass_through",
	DecisionBuffer:      "buffer",
	DecisionOptimize:    "optimize",
	DecisionDefer:       "defer",
	DecisionReject:      "reject",
	DecisionRetry:       "retry",
}

func (d Decision) String() string {
	if s, ok := decisionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("decision(%d)", uint8(d))
}

// Prediction is the model's output for a single request.
type Prediction struct {
	Decision           Decision // argmax of the class probabilities
	Confidence         float64  // probability of the chosen class, in [0,1]
	EstimatedLatencyUs uint32   // model's latency estimate
	ShouldBatch        bool     // batch-hint head exceeded its threshold
	BatchDelayUs       uint32   // suggested batching delay; 0 when ShouldBatch is false
}

func (p Prediction) String() string {
	return fmt.Sprintf("Prediction: (Decision: %s, Confidence: %.2f, EstLatency: %dus, Batch: %v)",
		p.Decision, p.Confidence, p.EstimatedLatencyUs, p.ShouldBatch)
}

// fallbackPrediction is the degraded answer used when the model cannot be
// consulted: treat the request as a pass-through with zero confidence
// rather than failing the pipeline.
func fallbackPrediction() Prediction {
	return Prediction{Decision: DecisionPassThrough, Confidence: 0}
}
