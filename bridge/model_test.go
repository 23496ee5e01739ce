package bridge

import (
	"math"
	"math/rand"
	"testing"
)

func initializedModel(seed int64) *Model {
	m := NewModel()
	m.Initialize(rand.New(rand.NewSource(seed)))
	return m
}

func sampleFeatures() FeatureVector {
	ledger := NewHistoryLedger(100)
	req := Request{Type: ReqIORead, DeviceID: 0x7A04, Address: 0x1000, Size: 64, Priority: 5}
	return ExtractFeatures(&req, ledger, 0)
}

func TestModel_PredictBeforeInitialize(t *testing.T) {
	// GIVEN an uninitialized model
	m := NewModel()
	f := sampleFeatures()

	// WHEN Predict is called
	_, err := m.Predict(&f)

	// THEN it fails with ErrNotInitialized
	if err != ErrNotInitialized {
		t.Errorf("Predict on uninitialized model: got %v, want ErrNotInitialized", err)
	}
}

func TestModel_DeterministicInitialization(t *testing.T) {
	// GIVEN two models initialized from the same seed
	m1 := initializedModel(42)
	m2 := initializedModel(42)

	// THEN their quantized state is identical
	if m1.state() != m2.state() {
		t.Error("same seed produced different model weights")
	}

	// AND they predict identically
	f := sampleFeatures()
	p1, err1 := m1.Predict(&f)
	p2, err2 := m2.Predict(&f)
	if err1 != nil || err2 != nil {
		t.Fatalf("Predict failed: %v, %v", err1, err2)
	}
	if p1 != p2 {
		t.Errorf("same seed, same input: got %v and %v", p1, p2)
	}
}

func TestModel_ClassProbabilitiesSumToOne(t *testing.T) {
	// GIVEN an initialized model and several feature vectors
	m := initializedModel(7)
	ledger := NewHistoryLedger(100)

	for i := 0; i < 20; i++ {
		req := Request{
			Type:     RequestType(i % NumRequestTypes),
			DeviceID: uint32(i * 31),
			Address:  uint64(i * 997),
			Size:     uint32(i * 513),
			Priority: uint32(i % (MaxPriority + 1)),
		}
		f := ExtractFeatures(&req, ledger, 0)

		// WHEN the softmax head is evaluated
		probs, err := m.ClassProbabilities(&f)
		if err != nil {
			t.Fatalf("ClassProbabilities: %v", err)
		}

		// THEN the probabilities sum to 1 within 1e-5 and are non-negative
		sum := 0.0
		for c, p := range probs {
			if p < 0 || p > 1 {
				t.Errorf("probability[%d] = %v out of [0,1]", c, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-5 {
			t.Errorf("probabilities sum to %v, want 1.0 within 1e-5", sum)
		}
	}
}

func TestModel_PredictionFieldsConsistent(t *testing.T) {
	// GIVEN an initialized model
	m := initializedModel(3)
	f := sampleFeatures()

	// WHEN a prediction is made
	pred, err := m.Predict(&f)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	// THEN the decision is in range and confidence is a probability
	if int(pred.Decision) >= NumDecisions {
		t.Errorf("decision %d out of range", pred.Decision)
	}
	if pred.Confidence < 0 || pred.Confidence > 1 {
		t.Errorf("confidence %v out of [0,1]", pred.Confidence)
	}
	if !pred.ShouldBatch && pred.BatchDelayUs != 0 {
		t.Errorf("batch delay %d without batch hint", pred.BatchDelayUs)
	}
}

func TestModel_LearnStaysBounded(t *testing.T) {
	// GIVEN an initialized model and a fixed input
	m := initializedModel(11)
	f := sampleFeatures()

	// WHEN one class receives a long run of one-sided feedback
	for i := 0; i < 1000; i++ {
		m.learn(&f, DecisionBuffer, true)
	}

	// THEN the weights stay clamped to the int8 range
	w := m.state()
	for j := 0; j < HiddenSize; j++ {
		v := w.WHO[j][DecisionBuffer]
		if v > 127 || v < -127 {
			t.Fatalf("weight [%d][buffer] = %d escaped clamp", j, v)
		}
	}

	// AND the model still emits a valid distribution
	probs, err := m.ClassProbabilities(&f)
	if err != nil {
		t.Fatalf("ClassProbabilities after learning: %v", err)
	}
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-5 {
		t.Errorf("probabilities sum to %v after learning, want 1.0", sum)
	}
}

func TestModel_LearnMovesChosenClass(t *testing.T) {
	// GIVEN an initialized model and a fixed input
	m := initializedModel(5)
	f := sampleFeatures()
	before, err := m.ClassProbabilities(&f)
	if err != nil {
		t.Fatalf("ClassProbabilities: %v", err)
	}

	// WHEN a class is reinforced repeatedly
	for i := 0; i < 50; i++ {
		m.learn(&f, DecisionOptimize, true)
	}

	// THEN its probability does not decrease
	after, err := m.ClassProbabilities(&f)
	if err != nil {
		t.Fatalf("ClassProbabilities: %v", err)
	}
	if after[DecisionOptimize] < before[DecisionOptimize] {
		t.Errorf("reinforced class probability fell: %v -> %v",
			before[DecisionOptimize], after[DecisionOptimize])
	}
}

func TestModel_LearnIgnoresUninitialized(t *testing.T) {
	// GIVEN an uninitialized model
	m := NewModel()
	f := sampleFeatures()

	// WHEN learn is called
	m.learn(&f, DecisionBuffer, true)

	// THEN the model remains uninitialized and unchanged
	if m.Initialized() {
		t.Error("learn initialized the model")
	}
}
