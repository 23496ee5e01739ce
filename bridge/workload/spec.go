package workload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kernel-bridge/kernel-bridge/bridge"
)

// Spec describes a synthetic request workload, loadable from a YAML file.
// Deterministic: the same spec always generates the same request stream.
type Spec struct {
	Seed       int64   `yaml:"seed"`         // workload RNG seed
	RatePerSec float64 `yaml:"rate_per_sec"` // mean arrival rate (Poisson)
	Count      int     `yaml:"count"`        // number of requests to generate

	// TypeWeights gives relative sampling weights per request type, in
	// enum order. Missing trailing entries weigh 0; empty means uniform
	// over the concrete types (ReqUnknown excluded).
	TypeWeights []float64 `yaml:"type_weights"`

	// DeviceIDs to sample requests across. Empty falls back
	// to the detectable chipset catalog's device IDs.
	DeviceIDs []uint32 `yaml:"device_ids"`

	SizeMin     uint32 `yaml:"size_min"`     // inclusive transfer size bound
	SizeMax     uint32 `yaml:"size_max"`     // inclusive transfer size bound
	PriorityMax uint32 `yaml:"priority_max"` // priorities sampled in [0, PriorityMax]
}

// DefaultSpec returns a small baseline workload.
func DefaultSpec() Spec {
	return Spec{
		Seed:        1,
		RatePerSec:  1000,
		Count:       100,
		SizeMin:     4,
		SizeMax:     8192,
		PriorityMax: bridge.MaxPriority,
	}
}

// LoadSpec reads and parses a YAML workload spec file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	return &spec, nil
}

// Validate checks parameter ranges.
func (s *Spec) Validate() error {
	if s.RatePerSec <= 0 {
		return fmt.Errorf("rate_per_sec must be positive, got %f", s.RatePerSec)
	}
	if s.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", s.Count)
	}
	if s.SizeMin > s.SizeMax {
		return fmt.Errorf("size_min %d exceeds size_max %d", s.SizeMin, s.SizeMax)
	}
	if s.PriorityMax > bridge.MaxPriority {
		return fmt.Errorf("priority_max %d exceeds %d", s.PriorityMax, bridge.MaxPriority)
	}
	if len(s.TypeWeights) > bridge.NumRequestTypes {
		return fmt.Errorf("type_weights has %d entries, at most %d allowed", len(s.TypeWeights), bridge.NumRequestTypes)
	}
	sum := 0.0
	for i, w := range s.TypeWeights {
		if w < 0 {
			return fmt.Errorf("type_weights[%d] must be non-negative, got %f", i, w)
		}
		sum += w
	}
	if len(s.TypeWeights) > 0 && sum == 0 {
		return fmt.Errorf("type_weights must not sum to zero")
	}
	return nil
}
