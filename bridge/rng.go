package bridge

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SeedKey identifies a reproducible engine run. Two engines built with the
// same SeedKey and identical configuration initialize bit-for-bit identical
// models and, given the same inputs, produce identical decisions.
type SeedKey int64

// NewSeedKey creates a SeedKey from a seed value.
func NewSeedKey(seed int64) SeedKey {
	return SeedKey(seed)
}

// RNG subsystem names. Each subsystem draws from its own deterministically
// derived stream so that, say, workload generation cannot perturb model
// initialization.
const (
	// SubsystemModel seeds model weight initialization.
	SubsystemModel = "model"

	// SubsystemWorkload seeds synthetic workload generation.
	SubsystemWorkload = "workload"

	// SubsystemTransport seeds simulated transport latency jitter.
	SubsystemTransport = "transport"
)

// SubsystemDevice returns the subsystem name for per-device RNG isolation.
func SubsystemDevice(id uint32) string {
	return fmt.Sprintf("device_%d", id)
}

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. Derived seed = masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Partition at construction time from a
// single goroutine; each returned *rand.Rand likewise belongs to one
// goroutine.
type PartitionedRNG struct {
	key        SeedKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SeedKey.
func NewPartitionedRNG(key SeedKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same cached *rand.Rand.
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SeedKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SeedKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
