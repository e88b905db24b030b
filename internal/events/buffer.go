package events

import "sync"

const defaultBufferSize = 1000

type message struct {
	Kind string
	Data []byte
	next *message
}

// buffer is a bounded fifo of pending events. When full, the oldest event is evicted.
type buffer struct {
	lock     sync.Mutex
	head     *message
	tail     *message
	size     int
	capacity int
	dropped  int
}

func newBuffer(capacity int) *buffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &buffer{capacity: capacity}
}

// PushBack appends msg and returns the message evicted to make room, if any.
func (b *buffer) PushBack(msg *message) *message {
	b.lock.Lock()
	defer b.lock.Unlock()

	var evicted *message
	if b.size == b.capacity {
		evicted = b.popLocked()
		b.dropped++
	}

	msg.next = nil
	if b.tail == nil {
		b.head = msg
	} else {
		b.tail.next = msg
	}
	b.tail = msg
	b.size++

	return evicted
}

func (b *buffer) Pop() *message {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.popLocked()
}

func (b *buffer) popLocked() *message {
	if b.head == nil {
		return nil
	}
	msg := b.head
	b.head = msg.next
	if b.head == nil {
		b.tail = nil
	}
	msg.next = nil
	b.size--
	return msg
}

func (b *buffer) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.size
}

// Dropped is the number of events evicted since creation.
func (b *buffer) Dropped() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.dropped
}
