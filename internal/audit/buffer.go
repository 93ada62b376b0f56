package audit

import "sync"

const defaultBufferSize = 10000

// eventQueue is a fixed-size FIFO. A push into a full queue overwrites the
// oldest event.
type eventQueue struct {
	mu    sync.Mutex
	slots []Event
	start int
	size  int
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &eventQueue{slots: make([]Event, capacity)}
}

// push appends event and reports whether the oldest event was overwritten.
func (q *eventQueue) push(event Event) (overwrote bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == len(q.slots) {
		q.slots[q.start] = event
		q.start = (q.start + 1) % len(q.slots)
		return true
	}
	q.slots[(q.start+q.size)%len(q.slots)] = event
	q.size++
	return false
}

// take removes and returns at most n of the oldest events.
func (q *eventQueue) take(n int) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	n = min(n, q.size)
	if n == 0 {
		return nil
	}
	out := make([]Event, 0, n)
	for range n {
		out = append(out, q.slots[q.start])
		q.slots[q.start] = Event{}
		q.start = (q.start + 1) % len(q.slots)
	}
	q.size -= n
	return out
}

func (q *eventQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
