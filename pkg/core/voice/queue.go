package voice

import (
	"sync"
)

// Entry is one markdown-stripped sentence awaiting synthesis, tagged with
// the voice identity that should speak it.
type Entry struct {
	Text    string
	VoiceID string
}

// Queue is the FIFO between the segmentation producer and the playback
// driver. Enqueue order equals emission order from the upstream stream;
// the driver consumes strictly in that order. A queue lives for exactly
// one response: it is created when a response stream starts and closed
// when the response is superseded or aborted.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	entries  []Entry
	finished bool
	closed   bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a sentence. Entries enqueued after Close are dropped.
func (q *Queue) Enqueue(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.entries = append(q.entries, e)
	q.cond.Signal()
}

// Finish marks the upstream text stream as complete. The consumer drains
// the remaining entries and then stops.
func (q *Queue) Finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finished = true
	q.cond.Broadcast()
}

// Close discards all queued entries and wakes the consumer. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.entries = nil
	q.cond.Broadcast()
}

// Next blocks until an entry is available and removes it. It returns
// false when the queue is closed, or when it is empty and the upstream
// stream has finished. No busy-polling: the wait is condition-driven.
func (q *Queue) Next() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return Entry{}, false
		}
		if len(q.entries) > 0 {
			e := q.entries[0]
			q.entries = q.entries[1:]
			return e, true
		}
		if q.finished {
			return Entry{}, false
		}
		q.cond.Wait()
	}
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}
