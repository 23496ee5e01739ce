package bridge

import (
	"math/rand"
	"testing"
)

func TestSimulatedTransport_LatencyWithinJitterBounds(t *testing.T) {
	// GIVEN a transport with base 50us and 100us jitter
	tr := NewSimulatedTransport(rand.New(rand.NewSource(1)), 50, 100, 0)
	req := Request{Type: ReqIORead, Size: 64}

	for i := 0; i < 100; i++ {
		// WHEN a request is forwarded
		latency, err := tr.Forward(nil, &req, Prediction{})

		// THEN it succeeds with latency in [base, base+jitter]
		if err != nil {
			t.Fatalf("Forward: %v", err)
		}
		if latency < 50 || latency > 150 {
			t.Errorf("latency %d outside [50, 150]", latency)
		}
	}
}

func TestSimulatedTransport_NoJitter(t *testing.T) {
	// GIVEN a transport with zero jitter
	tr := NewSimulatedTransport(rand.New(rand.NewSource(1)), 75, 0, 0)
	req := Request{Type: ReqIOWrite, Size: 64}

	latency, err := tr.Forward(nil, &req, Prediction{})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if latency != 75 {
		t.Errorf("latency: got %d, want exactly 75", latency)
	}
}

func TestSimulatedTransport_AlwaysFails(t *testing.T) {
	// GIVEN a transport with a failure rate of 1.0
	tr := NewSimulatedTransport(rand.New(rand.NewSource(1)), 10, 0, 1.0)
	req := Request{Type: ReqDMAAlloc, Size: 4096}

	// THEN every forward fails but still reports a latency
	for i := 0; i < 10; i++ {
		latency, err := tr.Forward(nil, &req, Prediction{})
		if err == nil {
			t.Fatal("Forward succeeded with failureRate=1.0")
		}
		if latency == 0 {
			t.Error("failed forward reported zero latency")
		}
	}
}

func TestSimulatedTransport_DeterministicWithSeed(t *testing.T) {
	// GIVEN two transports with identical seeds
	tr1 := NewSimulatedTransport(rand.New(rand.NewSource(42)), 50, 100, 0.3)
	tr2 := NewSimulatedTransport(rand.New(rand.NewSource(42)), 50, 100, 0.3)
	req := Request{Type: ReqIORead, Size: 64}

	// THEN they produce identical latency and failure sequences
	for i := 0; i < 50; i++ {
		l1, e1 := tr1.Forward(nil, &req, Prediction{})
		l2, e2 := tr2.Forward(nil, &req, Prediction{})
		if l1 != l2 || (e1 == nil) != (e2 == nil) {
			t.Fatalf("call %d diverged: (%d,%v) vs (%d,%v)", i, l1, e1, l2, e2)
		}
	}
}
