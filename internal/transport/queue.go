package transport

import (
	"sync"

	"github.com/qdice/quantumdice/internal/protocol"
)

// QueueCapacity bounds MessageQueue depth. The original firmware's Queue<T>
// doubled its backing array on every overflow; this fixes that by dropping
// the oldest entry instead, so a radio-callback storm cannot grow memory
// without bound.
const QueueCapacity = 32

// Received pairs a decoded Message with the RSSI the frame arrived at.
type Received struct {
	Message protocol.Message
	RSSI    int8
}

// MessageQueue is a bounded, drop-oldest-on-overflow queue. Push is safe to
// call from a radio receive callback; it never blocks and never allocates
// beyond the fixed backing array.
type MessageQueue struct {
	mu         sync.Mutex
	data       [QueueCapacity]Received
	head, tail int
	count      int
	dropped    uint64
}

func NewMessageQueue() *MessageQueue { return &MessageQueue{} }

// Push enqueues a received message, dropping the oldest entry if full.
func (q *MessageQueue) Push(r Received) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == QueueCapacity {
		q.head = (q.head + 1) % QueueCapacity
		q.count--
		q.dropped++
	}
	q.data[q.tail] = r
	q.tail = (q.tail + 1) % QueueCapacity
	q.count++
}

// Pop removes and returns the oldest entry, if any.
func (q *MessageQueue) Pop() (Received, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Received{}, false
	}
	r := q.data[q.head]
	q.head = (q.head + 1) % QueueCapacity
	q.count--
	return r, true
}

func (q *MessageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped reports how many entries were discarded for overflow, for metrics/logging.
func (q *MessageQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
