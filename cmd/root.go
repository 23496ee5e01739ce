package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kernel-bridge/kernel-bridge/bridge"
	"github.com/kernel-bridge/kernel-bridge/bridge/trace"
	"github.com/kernel-bridge/kernel-bridge/bridge/workload"
)

var (
	// CLI flags for engine configs
	logLevel       string // Log verbosity level
	configPath     string // YAML config file (engine + workload sections)
	mode           string // Engine authority mode
	seed           int64  // Master seed for model init and transport jitter
	queueCapacity  int    // Bounded request queue size
	ledgerCapacity int    // Circular outcome history size
	batchTimeoutMs int64  // Dispatcher wake interval
	learning       bool   // Enable bounded weight updates on feedback
	modelIn        string // Model state file to load before running
	modelOut       string // Model state file to save after running

	// CLI flags for workload generation
	rate        float64 // Requests arrival per second
	count       int     // Number of requests
	sizeMin     uint32  // Min transfer size in bytes
	sizeMax     uint32  // Max transfer size in bytes
	priorityMax uint32  // Max request priority

	// CLI flags for the simulated transport
	baseLatencyUs uint32  // Base downstream latency
	jitterUs      uint32  // Uniform jitter added on top
	failureRate   float64 // Fraction of forwards that fail

	traceLimit int // Max decision records retained by the trace
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "kernel-bridge",
	Short: "Adaptive request-classification and batching engine for driver traffic",
}

// runCmd drives a synthetic workload through the engine using parameters
// from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload through the engine",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, spec := buildConfigs()

		engineTrace := trace.NewEngineTrace(traceLimit)
		b, err := bridge.New(cfg,
			bridge.WithObserver(newTraceObserver(engineTrace)),
			bridge.WithTransport(newRunTransport(cfg.Seed)),
		)
		if err != nil {
			logrus.Fatalf("unable to start engine: %v", err)
		}

		if modelIn != "" {
			if err := b.LoadModel(modelIn); err != nil {
				logrus.Fatalf("unable to load model state from %s: %v", modelIn, err)
			}
			logrus.Infof("Loaded model state from %s", modelIn)
		}

		for _, info := range bridge.DetectChipsets() {
			if _, err := b.RegisterDevice(info.DeviceID, info.Type); err != nil {
				logrus.Fatalf("unable to register device 0x%x: %v", info.DeviceID, err)
			}
		}

		requests, err := workload.Generate(&spec)
		if err != nil {
			logrus.Fatalf("unable to generate workload: %v", err)
		}

		logrus.Infof("Starting run: %d requests at %.0f req/s, mode=%s, batch_timeout=%dms",
			len(requests), spec.RatePerSec, cfg.Mode, cfg.BatchTimeoutMs)
		startTime := time.Now()

		submitAll(b, requests)
		drain(b, cfg)
		b.Shutdown()

		printReport(b, engineTrace, time.Since(startTime))

		if modelOut != "" {
			if err := b.SaveModel(modelOut); err != nil {
				logrus.Fatalf("unable to save model state to %s: %v", modelOut, err)
			}
			logrus.Infof("Saved model state to %s", modelOut)
		}
	},
}

// submitAll paces requests onto the queue according to their arrival
// offsets. Backpressure is absorbed by retrying after a short sleep so
// the run processes every generated request.
func submitAll(b *bridge.Bridge, requests []workload.TimedRequest) {
	runStart := bridge.NowNs()
	for _, tr := range requests {
		for bridge.NowNs()-runStart < tr.OffsetNs {
			time.Sleep(time.Duration(tr.OffsetNs-(bridge.NowNs()-runStart)) * time.Nanosecond)
		}
		req := tr.Request
		req.Timestamp = bridge.NowNs()
		for {
			err := b.Submit(req)
			if err == nil {
				break
			}
			if errorsIsBackpressure(err) {
				time.Sleep(time.Millisecond)
				continue
			}
			logrus.Warnf("dropping request: %v", err)
			break
		}
	}
}

// drain waits until the queue is empty and the dispatcher has had at
// least one full timeout cycle to finish the tail batch.
func drain(b *bridge.Bridge, cfg bridge.Config) {
	timeout := time.Duration(cfg.BatchTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = bridge.DefaultBatchTimeoutMs * time.Millisecond
	}
	for b.QueueDepth() > 0 {
		time.Sleep(timeout)
	}
	time.Sleep(2 * timeout)
}

// printReport logs the final engine counters and trace summary.
func printReport(b *bridge.Bridge, t *trace.EngineTrace, elapsed time.Duration) {
	stats := b.Stats()
	summary := trace.Summarize(t)

	logrus.Infof("Run complete in %v", elapsed)
	logrus.Infof("%v", stats)
	logrus.Infof("Decisions: %d total, mean confidence %.3f, batched fraction %.3f",
		summary.TotalDecisions, summary.MeanConfidence, summary.BatchedFraction)
	for name, n := range summary.ByDecision {
		logrus.Infof("  %-12s %d", name, n)
	}
	logrus.Infof("Batches: %d, mean size %.2f, dispatcher wakes %d",
		summary.TotalBatches, summary.MeanBatchSize, b.DispatcherWakes())
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {

	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML config file with engine and workload sections")

	// Engine configs
	runCmd.Flags().StringVar(&mode, "mode", string(bridge.ModeAutonomous), "Engine mode (passthrough, assisted, autonomous)")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Master seed for model init and transport jitter")
	runCmd.Flags().IntVar(&queueCapacity, "queue-capacity", bridge.DefaultQueueCapacity, "Bounded request queue size")
	runCmd.Flags().IntVar(&ledgerCapacity, "ledger-capacity", bridge.DefaultLedgerCapacity, "Circular outcome history size")
	runCmd.Flags().Int64Var(&batchTimeoutMs, "batch-timeout-ms", bridge.DefaultBatchTimeoutMs, "Dispatcher wake interval in milliseconds")
	runCmd.Flags().BoolVar(&learning, "learning", false, "Enable bounded weight updates on feedback")
	runCmd.Flags().StringVar(&modelIn, "model-in", "", "Model state file to load before running")
	runCmd.Flags().StringVar(&modelOut, "model-out", "", "Model state file to save after running")

	// Workload generation configs
	runCmd.Flags().Float64Var(&rate, "rate", 1000.0, "Requests arrival per second")
	runCmd.Flags().IntVar(&count, "count", 100, "Number of requests")
	runCmd.Flags().Uint32Var(&sizeMin, "size-min", 4, "Min transfer size in bytes")
	runCmd.Flags().Uint32Var(&sizeMax, "size-max", 8192, "Max transfer size in bytes")
	runCmd.Flags().Uint32Var(&priorityMax, "priority-max", bridge.MaxPriority, "Max request priority")

	// Simulated transport configs
	runCmd.Flags().Uint32Var(&baseLatencyUs, "base-latency-us", 50, "Base downstream latency in microseconds")
	runCmd.Flags().Uint32Var(&jitterUs, "jitter-us", 100, "Uniform latency jitter in microseconds")
	runCmd.Flags().Float64Var(&failureRate, "failure-rate", 0.0, "Fraction of forwards that fail")

	runCmd.Flags().IntVar(&traceLimit, "trace-limit", 0, "Max decision records retained (0 = unbounded)")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(demoCmd)
}
