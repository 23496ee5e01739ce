package workload

import (
	"fmt"
	"math/rand"

	"github.com/kernel-bridge/kernel-bridge/bridge"
)

// TimedRequest pairs a generated request with its arrival offset from the
// start of the run. Timestamp is left zero; the submitting client stamps
// it at submit time.
type TimedRequest struct {
	OffsetNs uint64
	Request  bridge.Request
}

// concreteTypes are the request types sampled under uniform weighting.
// ReqUnknown is excluded: the generator models well-formed producers.
var concreteTypes = []bridge.RequestType{
	bridge.ReqIORead,
	bridge.ReqIOWrite,
	bridge.ReqDMAAlloc,
	bridge.ReqInterrupt,
	bridge.ReqPCIConfig,
	bridge.ReqPowerState,
}

// Generate creates a request sequence from a Spec. Deterministic given
// the same spec: arrivals are Poisson at RatePerSec, types follow the
// weight table, sizes and priorities are uniform within their bounds.
// Requests come back sorted by OffsetNs (arrival order by construction).
func Generate(spec *Spec) ([]TimedRequest, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}
	if spec.Count == 0 {
		return nil, nil
	}

	rng := bridge.NewPartitionedRNG(bridge.NewSeedKey(spec.Seed))
	workloadRNG := rng.ForSubsystem(bridge.SubsystemWorkload)

	devices := spec.DeviceIDs
	if len(devices) == 0 {
		for _, info := range bridge.DetectChipsets() {
			devices = append(devices, info.DeviceID)
		}
	}

	out := make([]TimedRequest, 0, spec.Count)
	var clockNs uint64
	for i := 0; i < spec.Count; i++ {
		// Exponential inter-arrival times give a Poisson process.
		iatSec := workloadRNG.ExpFloat64() / spec.RatePerSec
		clockNs += uint64(iatSec * 1e9)

		req := bridge.Request{
			Type:     sampleType(spec.TypeWeights, workloadRNG),
			DeviceID: devices[workloadRNG.Intn(len(devices))],
			Address:  uint64(workloadRNG.Uint32()),
			Size:     sampleUint32(workloadRNG, spec.SizeMin, spec.SizeMax),
			Flags:    uint32(workloadRNG.Intn(256)),
			Priority: sampleUint32(workloadRNG, 0, spec.PriorityMax),
		}
		out = append(out, TimedRequest{OffsetNs: clockNs, Request: req})
	}
	return out, nil
}

// sampleType draws a request type from the weight table, or uniformly
// over the concrete types when no weights are given.
func sampleType(weights []float64, rng *rand.Rand) bridge.RequestType {
	if len(weights) == 0 {
		return concreteTypes[rng.Intn(len(concreteTypes))]
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return bridge.RequestType(i)
		}
	}
	return bridge.RequestType(len(weights) - 1)
}

// sampleUint32 draws uniformly from [lo, hi].
func sampleUint32(rng *rand.Rand, lo, hi uint32) uint32 {
	if lo >= hi {
		return lo
	}
	return lo + uint32(rng.Int63n(int64(hi-lo)+1))
}
