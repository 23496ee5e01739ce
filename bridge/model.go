// The decision model: a two-layer feed-forward scorer over int8-quantized
// weights with per-layer float scale factors. The first six output slots
// form a softmax head over the decision classes; the remaining slots are
// raw scalars (latency estimate, batch hint, batch delay).

package bridge

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Model hyperparameters. FeatureSize is the input width (features.go).
const (
	HiddenSize = 64
	OutputSize = 16
)

// Output slot roles beyond the softmax head.
const (
	latencySlot    = 6 // raw scalar, x10000 -> estimated latency in us
	batchHintSlot  = 7 // > 0.5 -> should batch
	batchDelaySlot = 8 // raw scalar, x1000 -> batch delay in us
)

// Model holds the quantized network. Weights are mutated only at
// initialization, load, and (when learning is enabled) feedback; inference
// takes a read lock, so a forward pass never observes a half-applied
// update.
type Model struct {
	mu sync.RWMutex

	weightsInputHidden  [FeatureSize][HiddenSize]int8
	weightsHiddenOutput [HiddenSize][OutputSize]int8
	biasHidden          [HiddenSize]int8
	biasOutput          [OutputSize]int8

	scaleInput  float64
	scaleHidden float64
	scaleOutput float64

	initialized bool

	// Dequantized caches rebuilt whenever the quantized weights change.
	// effective weight = int8/127 * layer scale.
	inHidden  *mat.Dense    // HiddenSize x FeatureSize
	hiddenOut *mat.Dense    // OutputSize x HiddenSize
	biasH     *mat.VecDense // biasHidden * scaleHidden
	biasO     *mat.VecDense // biasOutput * scaleOutput
}

// NewModel returns an uninitialized model. Predict fails with
// ErrNotInitialized until Initialize or a successful load.
func NewModel() *Model {
	return &Model{}
}

// Initialize populates the network with Xavier-style random weights drawn
// from rng, quantized to int8, and small random biases. Reproducible only
// when rng is explicitly seeded; engines derive it from the model RNG
// subsystem so a fixed Config.Seed yields a fixed model.
func (m *Model) Initialize(rng *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scale := math.Sqrt(2.0 / float64(FeatureSize+HiddenSize))
	for i := 0; i < FeatureSize; i++ {
		for h := 0; h < HiddenSize; h++ {
			w := (rng.Float64() - 0.5) * 2.0 * scale
			m.weightsInputHidden[i][h] = quantize(w)
		}
	}

	scale = math.Sqrt(2.0 / float64(HiddenSize+OutputSize))
	for h := 0; h < HiddenSize; h++ {
		for o := 0; o < OutputSize; o++ {
			w := (rng.Float64() - 0.5) * 2.0 * scale
			m.weightsHiddenOutput[h][o] = quantize(w)
		}
	}

	for h := 0; h < HiddenSize; h++ {
		m.biasHidden[h] = int8(rng.Intn(20) - 10)
	}
	for o := 0; o < OutputSize; o++ {
		m.biasOutput[o] = int8(rng.Intn(20) - 10)
	}

	m.scaleInput = 1.0
	m.scaleHidden = 1.0
	m.scaleOutput = 1.0

	m.densifyLocked()
	m.initialized = true
}

// Initialized reports whether the model can serve predictions.
func (m *Model) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// quantize maps a float weight in roughly [-1,1] to an int8 step.
func quantize(w float64) int8 {
	q := w * 127.0
	if q > 127 {
		q = 127
	}
	if q < -127 {
		q = -127
	}
	return int8(q)
}

// densifyLocked rebuilds the dequantized gonum caches from the quantized
// weights. Caller holds the write lock.
func (m *Model) densifyLocked() {
	ih := mat.NewDense(HiddenSize, FeatureSize, nil)
	for i := 0; i < FeatureSize; i++ {
		for h := 0; h < HiddenSize; h++ {
			ih.Set(h, i, float64(m.weightsInputHidden[i][h])/127.0*m.scaleInput)
		}
	}
	ho := mat.NewDense(OutputSize, HiddenSize, nil)
	for h := 0; h < HiddenSize; h++ {
		for o := 0; o < OutputSize; o++ {
			ho.Set(o, h, float64(m.weightsHiddenOutput[h][o])/127.0*m.scaleHidden)
		}
	}
	bh := mat.NewVecDense(HiddenSize, nil)
	for h := 0; h < HiddenSize; h++ {
		bh.SetVec(h, float64(m.biasHidden[h])*m.scaleHidden)
	}
	bo := mat.NewVecDense(OutputSize, nil)
	for o := 0; o < OutputSize; o++ {
		bo.SetVec(o, float64(m.biasOutput[o])*m.scaleOutput)
	}
	m.inHidden, m.hiddenOut, m.biasH, m.biasO = ih, ho, bh, bo
}

// forwardLocked runs the network. Caller holds at least a read lock and
// has checked initialized. Returns the hidden activations and the raw
// output slots.
func (m *Model) forwardLocked(f *FeatureVector) (hidden, out []float64) {
	in := make([]float64, FeatureSize)
	copy(in, f[:])
	x := mat.NewVecDense(FeatureSize, in)

	var h mat.VecDense
	h.MulVec(m.inHidden, x)
	h.AddVec(&h, m.biasH)
	hidden = h.RawVector().Data
	for j := range hidden {
		if hidden[j] < 0 { // ReLU
			hidden[j] = 0
		}
	}

	var o mat.VecDense
	o.MulVec(m.hiddenOut, &h)
	o.AddVec(&o, m.biasO)
	return hidden, o.RawVector().Data
}

// softmax normalizes v in place to a probability distribution,
// max-shifted for numerical stability.
func softmax(v []float64) {
	maxVal := floats.Max(v)
	for i := range v {
		v[i] = math.Exp(v[i] - maxVal)
	}
	sum := floats.Sum(v)
	for i := range v {
		v[i] /= sum
	}
}

// Predict scores a feature vector. Pure with respect to the features and
// the model state: no I/O, never blocks beyond the read lock.
func (m *Model) Predict(f *FeatureVector) (Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.initialized {
		return Prediction{}, ErrNotInitialized
	}

	_, out := m.forwardLocked(f)

	probs := out[:NumDecisions]
	softmax(probs)

	best := 0
	for i := 1; i < NumDecisions; i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}

	pred := Prediction{
		Decision:           Decision(best),
		Confidence:         probs[best],
		EstimatedLatencyUs: scaleNonNegative(out[latencySlot], 10000.0),
		ShouldBatch:        out[batchHintSlot] > 0.5,
	}
	if pred.ShouldBatch {
		pred.BatchDelayUs = scaleNonNegative(out[batchDelaySlot], 1000.0)
	}
	return pred, nil
}

// ClassProbabilities returns the full softmax head for a feature vector.
func (m *Model) ClassProbabilities(f *FeatureVector) ([NumDecisions]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var probs [NumDecisions]float64
	if !m.initialized {
		return probs, ErrNotInitialized
	}
	_, out := m.forwardLocked(f)
	head := out[:NumDecisions]
	softmax(head)
	copy(probs[:], head)
	return probs, nil
}

// scaleNonNegative converts a raw output slot to a scaled uint32,
// clamping negative activations to zero.
func scaleNonNegative(raw, scale float64) uint32 {
	v := raw * scale
	if v <= 0 {
		return 0
	}
	if v >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// learn applies the bounded delta rule: nudge the hidden->output weight
// column of the recorded decision class one quantized step toward the
// observed outcome (success) or away from it (failure), for every hidden
// unit that was active on this input. Weights clamp to the int8 range, so
// a run of one-sided feedback cannot blow the column up.
func (m *Model) learn(f *FeatureVector, class Decision, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized || int(class) >= OutputSize {
		return
	}

	hidden, _ := m.forwardLocked(f)

	delta := 1
	if !success {
		delta = -1
	}
	for j := 0; j < HiddenSize; j++ {
		if hidden[j] <= 0 {
			continue
		}
		w := int(m.weightsHiddenOutput[j][class]) + delta
		if w > 127 {
			w = 127
		}
		if w < -127 {
			w = -127
		}
		m.weightsHiddenOutput[j][class] = int8(w)
	}
	m.densifyLocked()
}
