// Downstream transport: the collaborator that performs the actual I/O for
// a forwarded request and reports the observed outcome.

package bridge

import (
	"fmt"
	"math/rand"
	"sync"
)

// Transport receives each (request, prediction) pair the dispatcher
// forwards and performs the underlying operation. It returns the observed
// latency; a non-nil error marks the operation as failed.
type Transport interface {
	Forward(dev *DeviceContext, req *Request, pred Prediction) (latencyUs uint32, err error)
}

// Observer receives dispatcher lifecycle events. Implementations must be
// fast and must not call back into the engine; they run on the dispatcher
// goroutine.
type Observer interface {
	BatchStarted(size int)
	DecisionMade(req Request, pred Prediction)
	BatchFinished(processed int)
}

// SimulatedTransport models a downstream kernel layer with configurable
// base latency, seeded jitter, and a failure rate. Useful for demos and
// tests; production embedders supply their own Transport.
type SimulatedTransport struct {
	mu sync.Mutex

	rng           *rand.Rand
	baseLatencyUs uint32
	jitterUs      uint32
	failureRate   float64
}

// NewSimulatedTransport builds a simulated transport. rng must be
// non-nil; derive it from the engine's transport RNG subsystem for
// reproducible runs.
func NewSimulatedTransport(rng *rand.Rand, baseLatencyUs, jitterUs uint32, failureRate float64) *SimulatedTransport {
	return &SimulatedTransport{
		rng:           rng,
		baseLatencyUs: baseLatencyUs,
		jitterUs:      jitterUs,
		failureRate:   failureRate,
	}
}

// Forward simulates the downstream operation.
func (t *SimulatedTransport) Forward(dev *DeviceContext, req *Request, pred Prediction) (uint32, error) {
	t.mu.Lock()
	latency := t.baseLatencyUs
	if t.jitterUs > 0 {
		latency += uint32(t.rng.Intn(int(t.jitterUs) + 1))
	}
	failed := t.failureRate > 0 && t.rng.Float64() < t.failureRate
	t.mu.Unlock()

	if failed {
		return latency, fmt.Errorf("simulated transport failure for %s", req.Type)
	}
	return latency, nil
}
