// Package bridge implements the adaptive request-classification and
// batching engine that sits between driver producers and the downstream
// kernel transport.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - request.go: Request and Prediction types, the decision vocabulary
//   - engine.go: the Bridge instance, Submit/ProcessNow/Feedback surface
//   - dispatcher.go: the background drain loop and batch lifecycle
//
// # Architecture
//
// Producers call Submit from any goroutine; requests land in a bounded
// ring (queue.go) that signals a single dispatcher goroutine. The
// dispatcher captures the queue depth as one batch and, per request,
// builds a feature vector (features.go) against the history ledger
// (history.go), scores it with the quantized two-layer model (model.go),
// forwards it through a Transport (transport.go), and records the outcome
// back into the ledger and stats (stats.go).
//
// Collaborating registries -- devices (devices.go), the chipset catalog
// (chipset.go), and the port-forward rule table (rules.go) -- are plain
// id-keyed bookkeeping consulted around the core pipeline.
//
// Sub-packages:
//   - bridge/workload/: deterministic synthetic request generation
//   - bridge/trace/: decision trace recording
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Transport: perform the downstream operation, report latency/outcome
//   - Observer: watch dispatcher batch lifecycle and per-request decisions
package bridge
