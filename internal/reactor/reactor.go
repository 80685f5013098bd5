// Package reactor implements the single cooperative event-loop thread a
// Pool and its Connections are bound to (§5 "Scheduling model"). All Pool
// and Connection state is mutated only by closures run on the loop
// goroutine, so that state needs no locks; callers on other goroutines hop
// in by posting a closure (§9 "Thread hopping").
package reactor

import "sync"

// Reactor runs posted closures one at a time on a single dedicated
// goroutine. It is the "bound reactor thread" every Pool and Connection
// shares.
type Reactor struct {
	tasks    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// New starts a Reactor's loop goroutine and returns a handle to it.
func New() *Reactor {
	r := &Reactor{
		tasks:   make(chan func(), 256),
		stopped: make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Reactor) run() {
	for {
		select {
		case fn := <-r.tasks:
			fn()
		case <-r.stopped:
			return
		}
	}
}

// Post enqueues fn to run on the loop goroutine. Safe to call from any
// goroutine, including the loop goroutine itself. Posting after Stop is a
// no-op: fn never runs.
func (r *Reactor) Post(fn func()) {
	select {
	case r.tasks <- fn:
	case <-r.stopped:
	}
}

// Pending reports how many closures are currently queued ahead of the loop.
// Connections use this to decide whether to flush a batched write now or
// wait for the next posted task to arrive, approximating the teacher's
// write-batching heuristic without a fixed timer.
func (r *Reactor) Pending() int {
	return len(r.tasks)
}

// Stop halts the loop goroutine without waiting for the queue to drain: a
// closure already running finishes, and closures still queued may or may not
// run before the loop exits. Idempotent.
func (r *Reactor) Stop() {
	r.stopOnce.Do(func() { close(r.stopped) })
}
