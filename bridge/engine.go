// The Bridge engine: an explicit instance owning the request queue,
// history ledger, decision model, and statistics, with a single
// background dispatcher draining the queue. Multiple independent
// instances can coexist; there is no process-wide state.

package bridge

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// processStart anchors the engine's monotonic clock.
var processStart = time.Now()

// NowNs returns monotonic nanoseconds since process start. Producers use
// it to stamp requests; the feature extractor uses it to compute request
// age.
func NowNs() uint64 {
	return uint64(time.Since(processStart))
}

// Bridge is the adaptive request-classification and batching engine.
// Construct with New, tear down with Shutdown.
type Bridge struct {
	cfg Config
	rng *PartitionedRNG

	model   *Model
	ledger  *HistoryLedger
	queue   *RequestQueue
	stats   *StatsAggregator
	devices *DeviceRegistry

	transport Transport
	observer  Observer

	disp   *dispatcher
	closed atomic.Bool
}

// Option customizes a Bridge at construction time.
type Option func(*Bridge)

// WithTransport replaces the default simulated transport.
func WithTransport(t Transport) Option {
	return func(b *Bridge) { b.transport = t }
}

// WithObserver attaches a dispatcher lifecycle observer.
func WithObserver(o Observer) Option {
	return func(b *Bridge) { b.observer = o }
}

// New builds a Bridge from cfg, initializes the decision model from the
// configured seed, and starts the dispatcher.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	cfg = cfg.normalize()

	b := &Bridge{
		cfg:     cfg,
		rng:     NewPartitionedRNG(NewSeedKey(cfg.Seed)),
		model:   NewModel(),
		ledger:  NewHistoryLedger(cfg.LedgerCapacity),
		queue:   NewRequestQueue(cfg.QueueCapacity),
		stats:   NewStatsAggregator(),
		devices: NewDeviceRegistry(),
	}
	b.model.Initialize(b.rng.ForSubsystem(SubsystemModel))
	b.transport = NewSimulatedTransport(b.rng.ForSubsystem(SubsystemTransport), 50, 100, 0)

	for _, opt := range opts {
		opt(b)
	}

	b.disp = newDispatcher(b, time.Duration(cfg.BatchTimeoutMs)*time.Millisecond)
	b.disp.start()

	logrus.Infof("bridge: initialized in %s mode (queue=%d, ledger=%d, batch_timeout=%dms, seed=%d)",
		cfg.Mode, b.queue.Capacity(), b.ledger.Capacity(), cfg.BatchTimeoutMs, cfg.Seed)
	return b, nil
}

// Shutdown stops the dispatcher and marks the engine closed. The batch
// being processed when the signal lands is drained to completion before
// the dispatcher exits. Idempotent.
func (b *Bridge) Shutdown() {
	if b.closed.Swap(true) {
		return
	}
	b.disp.stopAndWait()
	logrus.Info("bridge: shutdown complete")
}

// Submit enqueues a request for asynchronous processing. Returns
// ErrBackpressure when the queue is full -- the caller retries or drops,
// Submit never blocks waiting for space -- and ErrInvalidArgument for
// malformed requests. Both recoverable errors also count as failures in
// the stats for observability.
func (b *Bridge) Submit(req Request) error {
	if b.closed.Load() {
		return fmt.Errorf("submitting request: %w", ErrNotInitialized)
	}
	b.stats.RecordSubmitted()

	if err := req.Validate(); err != nil {
		b.stats.RecordError()
		return err
	}

	dev, _ := b.devices.Get(req.DeviceID)
	if err := b.queue.Push(req, dev); err != nil {
		b.stats.RecordError()
		logrus.Warnf("bridge: backpressure, dropping %s", req.Type)
		return fmt.Errorf("submitting request: %w", err)
	}
	if dev != nil {
		dev.activeRequests.Add(1)
	}
	return nil
}

// ProcessNow bypasses the queue and scores a request synchronously.
// Intended for callers that need an immediate decision; it does not
// forward downstream and does not record history.
func (b *Bridge) ProcessNow(req Request) (Prediction, error) {
	if b.closed.Load() {
		return Prediction{}, fmt.Errorf("processing request: %w", ErrNotInitialized)
	}
	if err := req.Validate(); err != nil {
		b.stats.RecordError()
		return Prediction{}, err
	}
	b.stats.RecordSubmitted()

	features := ExtractFeatures(&req, b.ledger, NowNs())
	pred, err := b.model.Predict(&features)
	if err != nil {
		return Prediction{}, fmt.Errorf("processing request: %w", err)
	}
	return pred, nil
}

// Feedback records the observed outcome for a previously decided request:
// a history record plus stats, and a bounded weight update when learning
// is enabled. No-op when both recording and learning are disabled.
func (b *Bridge) Feedback(req Request, decision Decision, actualLatencyUs uint32, success bool) error {
	if b.closed.Load() {
		return fmt.Errorf("recording feedback: %w", ErrNotInitialized)
	}
	if err := req.Validate(); err != nil {
		return err
	}
	if int(decision) >= NumDecisions {
		return fmt.Errorf("%w: decision %d out of range", ErrInvalidArgument, decision)
	}
	if req.Size == 0 && (req.Type == ReqIORead || req.Type == ReqIOWrite || req.Type == ReqDMAAlloc) {
		return fmt.Errorf("%w: zero-length feedback target", ErrInvalidArgument)
	}
	if !b.cfg.recording() && !b.cfg.Learning {
		return nil
	}

	b.applyOutcome(&req, decision, nil, actualLatencyUs, success)
	return nil
}

// PredictFailure estimates the probability that a request of this type
// will fail, from the ledger's recorded outcomes. With no history for the
// type it returns the 0.5 neutral prior.
func (b *Bridge) PredictFailure(req Request) (float64, error) {
	if b.closed.Load() {
		return 0, fmt.Errorf("predicting failure: %w", ErrNotInitialized)
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}
	return b.ledger.FailureRate(req.Type), nil
}

// Stats returns a point-in-time snapshot of the aggregate counters.
func (b *Bridge) Stats() StatsSnapshot {
	return b.stats.Snapshot()
}

// SaveModel serializes the model, stats, and ledger to path in the fixed
// binary layout.
func (b *Bridge) SaveModel(path string) error {
	if b.closed.Load() {
		return fmt.Errorf("saving model: %w", ErrNotInitialized)
	}
	if path == "" {
		return fmt.Errorf("%w: empty model path", ErrInvalidArgument)
	}
	return saveState(path, b.model, b.stats, b.ledger)
}

// LoadModel replaces the model, stats, and ledger from a file previously
// written by SaveModel. Validation is all-or-nothing: on any error the
// in-memory state is untouched.
func (b *Bridge) LoadModel(path string) error {
	if b.closed.Load() {
		return fmt.Errorf("loading model: %w", ErrNotInitialized)
	}
	if path == "" {
		return fmt.Errorf("%w: empty model path", ErrInvalidArgument)
	}
	return loadState(path, b.model, b.stats, b.ledger)
}

// RegisterDevice adds a device to the registry. Its requests are
// AI-managed unless the engine runs in passthrough mode.
func (b *Bridge) RegisterDevice(deviceID uint32, chipset ChipsetType) (*DeviceContext, error) {
	return b.devices.Register(deviceID, chipset, b.cfg.Mode != ModePassthrough)
}

// UnregisterDevice removes a device from the registry.
func (b *Bridge) UnregisterDevice(deviceID uint32) error {
	return b.devices.Unregister(deviceID)
}

// Devices exposes the device registry.
func (b *Bridge) Devices() *DeviceRegistry {
	return b.devices
}

// Ledger exposes the history ledger for read-side queries.
func (b *Bridge) Ledger() *HistoryLedger {
	return b.ledger
}

// QueueDepth returns the current number of queued requests.
func (b *Bridge) QueueDepth() int {
	return b.queue.Len()
}

// DispatcherWakes returns how many times the dispatcher loop has woken.
func (b *Bridge) DispatcherWakes() uint64 {
	return b.disp.Wakes()
}

// processEntry scores, forwards, and records one drained queue entry.
// Runs on the dispatcher goroutine.
func (b *Bridge) processEntry(e *queueEntry) {
	req := &e.req
	defer func() {
		if e.dev != nil {
			e.dev.activeRequests.Add(-1)
		}
	}()

	var pred Prediction
	var features FeatureVector
	scored := false
	if b.cfg.Mode == ModePassthrough {
		pred = fallbackPrediction()
	} else {
		features = ExtractFeatures(req, b.ledger, NowNs())
		p, err := b.model.Predict(&features)
		if err != nil {
			// Degrade gracefully: an unusable model must not fail the
			// pipeline.
			pred = fallbackPrediction()
		} else {
			pred = p
			scored = true
		}
	}

	if obs := b.observer; obs != nil {
		obs.DecisionMade(*req, pred)
	}

	// Reject short-circuits forwarding only when the engine has full
	// authority. Defer and Retry stay advisory: the request is forwarded
	// within this same cycle regardless, and only the recorded decision
	// distinguishes them from a pass-through.
	if pred.Decision == DecisionReject && b.cfg.Mode == ModeAutonomous {
		b.stats.RecordRejected()
		if b.cfg.recording() {
			b.ledger.Append(HistoryRecord{
				Pattern:  PatternOf(req),
				Decision: pred.Decision,
				Success:  false,
			})
		}
		logrus.Debugf("dispatcher: rejected %s for device 0x%x (confidence %.2f)", req.Type, req.DeviceID, pred.Confidence)
		return
	}

	forward := *req
	optimized := false
	if pred.Decision == DecisionOptimize {
		forward = OptimizeRequest(*req)
		optimized = true
	}
	b.stats.RecordForwarded(optimized, pred.ShouldBatch)

	latencyUs, err := b.transport.Forward(e.dev, &forward, pred)
	success := err == nil
	if !success {
		logrus.Debugf("dispatcher: downstream failure for %s on device 0x%x: %v", req.Type, req.DeviceID, err)
	}

	var f *FeatureVector
	if scored {
		f = &features
	}
	b.applyOutcome(req, pred.Decision, f, latencyUs, success)
}

// applyOutcome records a completed request's outcome and, when learning
// is enabled, nudges the model. features may be nil; learning recomputes
// them against the current ledger in that case.
func (b *Bridge) applyOutcome(req *Request, decision Decision, features *FeatureVector, latencyUs uint32, success bool) {
	if b.cfg.recording() {
		b.ledger.Append(HistoryRecord{
			Pattern:   PatternOf(req),
			Decision:  decision,
			LatencyUs: latencyUs,
			Success:   success,
		})
		b.stats.RecordOutcome(success, latencyUs)
	}
	if b.cfg.Learning {
		if features == nil {
			f := ExtractFeatures(req, b.ledger, NowNs())
			features = &f
		}
		b.model.learn(features, decision, success)
	}
}
