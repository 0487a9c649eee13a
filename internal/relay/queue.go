package relay

import (
	"sync"
)

// Queue is a bounded per-subscriber mailbox. Send never blocks: when the
// queue is full the subscriber is considered too slow and the queue closes,
// the consumer then sees C() closed and tears its connection down.
type Queue struct {
	name string
	ch   chan *Message

	mx       sync.Mutex
	closed   bool
	overflow bool
}

func NewQueue(name string, size int) *Queue {
	if size <= 0 {
		size = 1
	}

	return &Queue{
		name: name,
		ch:   make(chan *Message, size),
	}
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) Send(msg *Message) bool {
	q.mx.Lock()
	defer q.mx.Unlock()

	if q.closed {
		return false
	}

	select {
	case q.ch <- msg:
		return true
	default:
		q.overflow = true
		q.closeLocked()

		return false
	}
}

func (q *Queue) C() <-chan *Message {
	return q.ch
}

func (q *Queue) Close() {
	q.mx.Lock()
	defer q.mx.Unlock()

	q.closeLocked()
}

func (q *Queue) closeLocked() {
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

func (q *Queue) IsClosed() bool {
	q.mx.Lock()
	defer q.mx.Unlock()

	return q.closed
}

// Overflowed reports whether the queue was closed because it was full.
func (q *Queue) Overflowed() bool {
	q.mx.Lock()
	defer q.mx.Unlock()

	return q.overflow
}
