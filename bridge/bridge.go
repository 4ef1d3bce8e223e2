// Package bridge hands audio-capture events from OS callback threads to a
// single polling consumer.
//
// Capture backends deliver data on realtime audio threads; the consumer
// (typically a host event loop) wants to pick events up at its own pace.
// Queue sits between the two: any number of callback threads append events
// under a short lock, and the consumer drains everything that has
// accumulated in one call. Once a queue is destroyed, producers discard
// their events instead of writing into state that is being torn down.
package bridge

import (
	"sync"
	"sync/atomic"
)

// Event is one item delivered by a capture session. It is a closed set:
// Data, Started, Stopped, Error and Metadata are the only implementations.
type Event interface {
	isEvent()
}

// Data carries one chunk of raw audio payload. The bytes are opaque to the
// bridge; their format is described by the Metadata event that precedes
// them. Zero-length chunks are valid and are forwarded, not dropped.
type Data struct {
	Bytes []byte
}

// Started signals that the underlying stream transitioned to running.
type Started struct{}

// Stopped signals that the underlying stream transitioned to not-running.
type Stopped struct{}

// Error reports a stream failure. The stream is dead but the bridge is
// not; the consumer discovers the failure on its next drain. Message may
// be empty.
type Error struct {
	Message string
}

// Metadata describes the format of the Data events that follow it.
type Metadata struct {
	SampleRate       float64
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
	IsFloat          bool
	Encoding         string
}

func (Data) isEvent()     {}
func (Started) isEvent()  {}
func (Stopped) isEvent()  {}
func (Error) isEvent()    {}
func (Metadata) isEvent() {}

// Queue is a multi-producer, single-consumer FIFO of events.
//
// Enqueue may be called from any thread, including realtime audio threads:
// the critical section only appends to a slice. DrainAll is meant to be
// called from exactly one consumer thread. Events come out in the order
// they went in, across all producers combined; the queue never reorders,
// coalesces or drops an accepted event.
type Queue struct {
	// destroyed is synchronized independently of mu so producers can
	// bail out without touching the queue lock mid-teardown.
	destroyed atomic.Bool

	mu     sync.Mutex
	events []Event
}

// NewQueue returns an empty, live queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends ev to the tail of the queue. It never blocks beyond the
// lock hold time and cannot fail. After Destroy, the event is silently
// discarded: callbacks may already be scheduled when teardown starts, and
// no consumer will ever observe them.
func (q *Queue) Enqueue(ev Event) {
	if q.destroyed.Load() {
		return
	}
	q.mu.Lock()
	// Re-check under the lock: Destroy may have won the race after the
	// cheap check above, and nothing must land in a destroyed queue.
	if !q.destroyed.Load() {
		q.events = append(q.events, ev)
	}
	q.mu.Unlock()
}

// DrainAll atomically empties the queue and returns its prior contents in
// FIFO order. It returns nil when nothing is queued and always succeeds,
// including on a destroyed queue.
func (q *Queue) DrainAll() []Event {
	q.mu.Lock()
	events := q.events
	q.events = nil
	q.mu.Unlock()
	return events
}

// Destroy marks the queue dead and discards anything still queued. All
// subsequent (and racing) Enqueue calls become no-ops; DrainAll returns
// nil forever after. Destroy is idempotent.
func (q *Queue) Destroy() {
	q.destroyed.Store(true)
	q.mu.Lock()
	q.events = nil
	q.mu.Unlock()
}

// Destroyed reports whether Destroy has been called. Producers check this
// at the top of every callback entry point before doing any work.
func (q *Queue) Destroyed() bool {
	return q.destroyed.Load()
}
