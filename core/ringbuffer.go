package core

import "sync/atomic"

// Power-of-two capacity so index wraparound is a mask
const (
	BufferSize = 16
	bufferMask = BufferSize - 1
)

// RingBuffer is a single-producer/single-consumer byte queue shared between
// an interrupt handler and main-line code. One slot is always left free to
// tell full from empty, so it holds BufferSize-1 bytes.
//
// The producer owns tail and the consumer owns head. Each side touches the
// data slot first and publishes its index last with an atomic store, so the
// other side never observes a slot before its contents are in place.
type RingBuffer struct {
	buf  [BufferSize]byte
	head uint32 // next byte to read
	tail uint32 // next slot to write
}

// Reset empties the buffer. Only safe while the other side is quiescent.
func (rb *RingBuffer) Reset() {
	atomic.StoreUint32(&rb.head, 0)
	atomic.StoreUint32(&rb.tail, 0)
}

// IsEmpty reports head == tail
func (rb *RingBuffer) IsEmpty() bool {
	return atomic.LoadUint32(&rb.head) == atomic.LoadUint32(&rb.tail)
}

// IsFull reports (tail+1) mod capacity == head
func (rb *RingBuffer) IsFull() bool {
	return (atomic.LoadUint32(&rb.tail)+1)&bufferMask == atomic.LoadUint32(&rb.head)
}

// Len returns the number of buffered bytes
func (rb *RingBuffer) Len() int {
	return int((atomic.LoadUint32(&rb.tail) - atomic.LoadUint32(&rb.head)) & bufferMask)
}

// Put appends a byte. It fails with ErrBufferFull and leaves the buffer
// untouched when no slot is free.
func (rb *RingBuffer) Put(c byte) error {
	tail := atomic.LoadUint32(&rb.tail)
	next := (tail + 1) & bufferMask
	if next == atomic.LoadUint32(&rb.head) {
		return ErrBufferFull
	}
	rb.buf[tail] = c
	atomic.StoreUint32(&rb.tail, next)
	return nil
}

// Get removes the oldest byte. It fails with ErrBufferEmpty and leaves the
// buffer untouched when there is nothing to read.
func (rb *RingBuffer) Get() (byte, error) {
	head := atomic.LoadUint32(&rb.head)
	if head == atomic.LoadUint32(&rb.tail) {
		return 0, ErrBufferEmpty
	}
	c := rb.buf[head]
	atomic.StoreUint32(&rb.head, (head+1)&bufferMask)
	return c, nil
}
