// Feature extraction: maps a request plus ledger statistics onto the
// fixed-length normalized vector the decision model consumes.

package bridge

import "math"

// FeatureSize is the model input width.
const FeatureSize = 32

// HistoryWindow is the number of recent ledger entries the historical
// feature slots look back over.
const HistoryWindow = 100

// baseFeatures is the number of directly-derived slots; slots at and above
// this index are filled by the deterministic padding rule.
const baseFeatures = 10

// FeatureVector is the model input. Every component is clamped to [0,1].
type FeatureVector [FeatureSize]float64

// ExtractFeatures deterministically builds a FeatureVector from a request
// and a consistent view of the ledger. nowNs is the caller's monotonic
// clock reading; passing it explicitly keeps the function pure and
// testable. No side effects.
//
// Slot layout:
//
//	0  type index / max type
//	1  device id low byte / 255
//	2  device id second byte / 255
//	3  address low 16 bits / 65535
//	4  size / 4096 (page-size normalization)
//	5  flags low byte / 255
//	6  priority / 10
//	7  age in ms, clamped at 1.0
//	8  fraction of last 100 ledger entries sharing the request type
//	9  average latency of last 100 entries / 10000 (0.5 neutral prior)
//	10+ padding: feature[i] = feature[i mod 10] * 0.5
func ExtractFeatures(req *Request, ledger *HistoryLedger, nowNs uint64) FeatureVector {
	var f FeatureVector

	f[0] = clamp01(float64(req.Type) / float64(ReqUnknown))
	f[1] = float64(req.DeviceID&0xFF) / 255.0
	f[2] = float64((req.DeviceID>>8)&0xFF) / 255.0
	f[3] = float64(req.Address&0xFFFF) / 65535.0
	f[4] = clamp01(float64(req.Size) / 4096.0)
	f[5] = float64(req.Flags&0xFF) / 255.0
	f[6] = clamp01(float64(req.Priority) / float64(MaxPriority))

	// Age since creation, in milliseconds, saturating at 1.0.
	var deltaNs uint64
	if nowNs > req.Timestamp {
		deltaNs = nowNs - req.Timestamp
	}
	f[7] = math.Min(1.0, float64(deltaNs)/1e6)

	f[8] = clamp01(ledger.TypeFraction(req.Type, HistoryWindow))
	if avg, ok := ledger.AvgLatencyUs(HistoryWindow); ok {
		f[9] = clamp01(avg / 10000.0)
	} else {
		// Neutral prior, not 0: an empty ledger must not read as "fast".
		f[9] = 0.5
	}

	for i := baseFeatures; i < FeatureSize; i++ {
		f[i] = f[i%baseFeatures] * 0.5
	}
	return f
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
