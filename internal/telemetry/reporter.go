// Package telemetry reports deque throughput on a fixed interval.
//
// Grounded on the teacher's disruptor.EventBatcher: a buffered channel
// feeds a single goroutine that drains it on a ticker, except here the
// payload is a throughput sample rather than a batch of events to
// fsync.
package telemetry

import (
	"log"
	"sync/atomic"
	"time"
)

// Sample is one operation outcome recorded by a caller of the deque.
type Sample struct {
	Op      string // "push_front", "push_back", "pop_front", "pop_back"
	Success bool
}

// Reporter aggregates Samples and logs a throughput line every
// interval. The zero value is not usable; construct with NewReporter.
type Reporter struct {
	queue    chan Sample
	interval time.Duration

	pushes   atomic.Uint64
	pops     atomic.Uint64
	rejected atomic.Uint64

	shutdownCh   chan struct{}
	shutdownDone chan struct{}
}

// NewReporter returns a Reporter that logs a summary line every
// interval. queueSize bounds how many in-flight Samples may be
// buffered before Record starts dropping them (mirroring
// EventBatcher's "drop on full queue, log a warning" policy).
func NewReporter(interval time.Duration, queueSize int) *Reporter {
	if queueSize <= 0 {
		queueSize = 4096
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Reporter{
		queue:        make(chan Sample, queueSize),
		interval:     interval,
		shutdownCh:   make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
}

// Start begins the reporting loop in its own goroutine.
func (r *Reporter) Start() {
	go r.loop()
}

func (r *Reporter) loop() {
	defer close(r.shutdownDone)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var windowPushes, windowPops, windowRejected uint64

	for {
		select {
		case s := <-r.queue:
			r.account(s, &windowPushes, &windowPops, &windowRejected)

		case <-ticker.C:
			r.report(windowPushes, windowPops, windowRejected)
			windowPushes, windowPops, windowRejected = 0, 0, 0

		case <-r.shutdownCh:
			for {
				select {
				case s := <-r.queue:
					r.account(s, &windowPushes, &windowPops, &windowRejected)
				default:
					r.report(windowPushes, windowPops, windowRejected)
					return
				}
			}
		}
	}
}

func (r *Reporter) account(s Sample, pushes, pops, rejected *uint64) {
	switch {
	case !s.Success:
		*rejected++
		r.rejected.Add(1)
	case s.Op == "push_front" || s.Op == "push_back":
		*pushes++
		r.pushes.Add(1)
	default:
		*pops++
		r.pops.Add(1)
	}
}

func (r *Reporter) report(pushes, pops, rejected uint64) {
	if pushes == 0 && pops == 0 && rejected == 0 {
		return
	}
	log.Printf("deque throughput: pushes=%d pops=%d rejected=%d (window=%s)",
		pushes, pops, rejected, r.interval)
}

// Record queues a Sample for accounting. Non-blocking: a full queue
// drops the sample and logs a warning, the same trade-off the teacher
// makes in EventBatcher.QueueEvent.
func (r *Reporter) Record(s Sample) {
	select {
	case r.queue <- s:
	default:
		log.Printf("WARNING: telemetry queue full, dropping sample for %s", s.Op)
	}
}

// Totals returns the cumulative counters since Start.
func (r *Reporter) Totals() (pushes, pops, rejected uint64) {
	return r.pushes.Load(), r.pops.Load(), r.rejected.Load()
}

// Shutdown flushes any queued samples, emits a final report, and
// blocks until the reporting goroutine has exited.
func (r *Reporter) Shutdown() {
	close(r.shutdownCh)
	<-r.shutdownDone
}
