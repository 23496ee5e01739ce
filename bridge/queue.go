// Implements the RequestQueue, a bounded multi-producer/single-consumer
// ring buffer of admitted requests. Producers that find it full get
// ErrBackpressure instead of blocking; the dispatcher drains it in
// depth-captured batches.

package bridge

import "sync"

// queueEntry pairs a request with the device context it arrived on.
type queueEntry struct {
	req Request
	dev *DeviceContext // nil when the producer is not device-scoped
}

// RequestQueue is a fixed-capacity FIFO ring. Enqueue order across
// producers is whatever order Submit calls acquire the lock; within the
// queue FIFO order is preserved exactly.
type RequestQueue struct {
	mu      sync.Mutex
	entries []queueEntry
	head    int
	count   int

	// wake carries at most one pending signal to the dispatcher.
	wake chan struct{}
}

// NewRequestQueue creates a queue with the given capacity.
func NewRequestQueue(capacity int) *RequestQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &RequestQueue{
		entries: make([]queueEntry, capacity),
		wake:    make(chan struct{}, 1),
	}
}

// Capacity returns the fixed queue capacity.
func (q *RequestQueue) Capacity() int {
	return len(q.entries)
}

// Len returns the current queue depth.
func (q *RequestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Push enqueues an entry and signals the dispatcher. Returns
// ErrBackpressure when the queue is at capacity; the producer only ever
// holds the lock for the metadata update, never waits for space.
func (q *RequestQueue) Push(req Request, dev *DeviceContext) error {
	q.mu.Lock()
	if q.count == len(q.entries) {
		q.mu.Unlock()
		return ErrBackpressure
	}
	q.entries[(q.head+q.count)%len(q.entries)] = queueEntry{req: req, dev: dev}
	q.count++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default: // a signal is already pending
	}
	return nil
}

// DrainAll atomically captures the current queue depth as one batch and
// empties the queue. Entries come back in FIFO order. Returns nil when
// the queue is empty.
func (q *RequestQueue) DrainAll() []queueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	batch := make([]queueEntry, q.count)
	for i := 0; i < q.count; i++ {
		batch[i] = q.entries[(q.head+i)%len(q.entries)]
	}
	q.head = 0
	q.count = 0
	return batch
}

// Wake exposes the dispatcher's signal channel.
func (q *RequestQueue) Wake() <-chan struct{} {
	return q.wake
}
