// The dispatcher: a single background goroutine that drains the request
// queue in batches, scoring each request and forwarding it downstream.

package bridge

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// dispatcher owns the drain loop. Exactly one per Bridge; producers only
// ever touch it through the queue's wake channel.
type dispatcher struct {
	bridge       *Bridge
	batchTimeout time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	wakes atomic.Uint64
}

func newDispatcher(b *Bridge, batchTimeout time.Duration) *dispatcher {
	return &dispatcher{
		bridge:       b,
		batchTimeout: batchTimeout,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (d *dispatcher) start() {
	go d.loop()
}

// Wakes returns how many times the loop has woken, whether by signal or
// timeout. With an empty queue the loop still wakes at least once per
// batch timeout, doing nothing but checking for shutdown.
func (d *dispatcher) Wakes() uint64 {
	return d.wakes.Load()
}

// stopAndWait signals shutdown and blocks until the loop has exited.
// Any batch already captured keeps processing to completion first; no
// batch is ever left partially processed.
func (d *dispatcher) stopAndWait() {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
}

// loop waits until the queue signals, the batch timeout elapses, or
// shutdown is requested -- whichever comes first -- then drains the
// current queue depth as one batch.
func (d *dispatcher) loop() {
	defer close(d.done)

	logrus.Debug("dispatcher: started")
	timer := time.NewTimer(d.batchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-d.stop:
			logrus.Debug("dispatcher: stopped")
			return
		case <-d.queueWake():
			// Drop the pending timer expiry so the reset below is clean.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-timer.C:
		}

		d.wakes.Add(1)
		if batch := d.bridge.queue.DrainAll(); len(batch) > 0 {
			d.runBatch(batch)
		}
		timer.Reset(d.batchTimeout)
	}
}

func (d *dispatcher) queueWake() <-chan struct{} {
	return d.bridge.queue.Wake()
}

// runBatch processes every captured entry in FIFO order. Runs to
// completion even if shutdown is signaled partway through.
func (d *dispatcher) runBatch(batch []queueEntry) {
	if obs := d.bridge.observer; obs != nil {
		obs.BatchStarted(len(batch))
	}

	reqs := make([]Request, len(batch))
	for i := range batch {
		reqs[i] = batch[i].req
	}
	_, numGroups := GroupRequests(reqs)
	logrus.Debugf("dispatcher: processing batch of %d requests (%d forwarding groups)", len(batch), numGroups)

	for i := range batch {
		d.bridge.processEntry(&batch[i])
	}

	if obs := d.bridge.observer; obs != nil {
		obs.BatchFinished(len(batch))
	}
}
