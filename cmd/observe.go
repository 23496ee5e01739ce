package cmd

import (
	"github.com/kernel-bridge/kernel-bridge/bridge"
	"github.com/kernel-bridge/kernel-bridge/bridge/trace"
)

// traceObserver forwards dispatcher notifications into an EngineTrace.
type traceObserver struct {
	trace *trace.EngineTrace
}

func newTraceObserver(t *trace.EngineTrace) *traceObserver {
	return &traceObserver{trace: t}
}

func (o *traceObserver) BatchStarted(size int) {}

func (o *traceObserver) DecisionMade(req bridge.Request, pred bridge.Prediction) {
	o.trace.RecordDecision(trace.DecisionRecord{
		ClockNs:     bridge.NowNs(),
		DeviceID:    req.DeviceID,
		RequestType: req.Type.String(),
		Decision:    pred.Decision.String(),
		Confidence:  pred.Confidence,
		Batched:     pred.ShouldBatch,
	})
}

func (o *traceObserver) BatchFinished(size int) {
	o.trace.RecordBatch(size)
}
