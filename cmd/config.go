package cmd

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kernel-bridge/kernel-bridge/bridge"
	"github.com/kernel-bridge/kernel-bridge/bridge/workload"
)

// FileConfig is the on-disk YAML layout: one engine section and one
// workload section.
type FileConfig struct {
	Engine   bridge.Config `yaml:"engine"`
	Workload workload.Spec `yaml:"workload"`
}

// buildConfigs resolves the engine config and workload spec, either from
// the --config file or from individual CLI flags.
func buildConfigs() (bridge.Config, workload.Spec) {
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			logrus.Fatalf("unable to read config file %s: %v", configPath, err)
		}
		var fc FileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			logrus.Fatalf("unable to parse config file %s: %v", configPath, err)
		}
		if fc.Workload.Count == 0 {
			fc.Workload = workload.DefaultSpec()
		}
		logrus.Infof("Using config file %s", configPath)
		return fc.Engine, fc.Workload
	}

	cfg := bridge.Config{
		Mode:           bridge.Mode(mode),
		QueueCapacity:  queueCapacity,
		LedgerCapacity: ledgerCapacity,
		BatchTimeoutMs: batchTimeoutMs,
		Seed:           seed,
		Learning:       learning,
	}
	spec := workload.Spec{
		Seed:        seed,
		RatePerSec:  rate,
		Count:       count,
		SizeMin:     sizeMin,
		SizeMax:     sizeMax,
		PriorityMax: priorityMax,
	}
	return cfg, spec
}

// newRunTransport builds the simulated downstream transport from the
// transport CLI flags, with jitter drawn from the transport RNG stream.
func newRunTransport(masterSeed int64) *bridge.SimulatedTransport {
	rng := bridge.NewPartitionedRNG(bridge.NewSeedKey(masterSeed))
	return bridge.NewSimulatedTransport(
		rng.ForSubsystem(bridge.SubsystemTransport),
		baseLatencyUs, jitterUs, failureRate,
	)
}

func errorsIsBackpressure(err error) bool {
	return errors.Is(err, bridge.ErrBackpressure)
}
