package bridge

import "errors"

// Sentinel errors returned by Bridge operations. Callers match with
// errors.Is; wrapped variants carry call-site context.
var (
	// ErrNotInitialized is returned when an operation is attempted before
	// the engine (or its decision model) has been initialized, or after
	// Shutdown.
	ErrNotInitialized = errors.New("bridge: not initialized")

	// ErrInvalidArgument is returned for malformed requests, e.g. an
	// out-of-range request type or a zero-length feedback target.
	ErrInvalidArgument = errors.New("bridge: invalid argument")

	// ErrBackpressure is returned by Submit when the request queue is at
	// capacity. The caller decides whether to retry or drop; Submit never
	// blocks waiting for space.
	ErrBackpressure = errors.New("bridge: queue at capacity")

	// ErrModelCorrupt is returned by LoadModel when the file fails
	// size or structure validation. The in-memory model is left untouched.
	ErrModelCorrupt = errors.New("bridge: model file corrupt")
)
