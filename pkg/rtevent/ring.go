package rtevent

import "sync/atomic"

// defaultRingCapacity is the default size for the RT<->non-RT rings (power of
// two, ~100 rounded up), matching the capacity the dispatcher and RT thread
// exchange events through per chunk.
const defaultRingCapacity = 128

// Ring is a single-producer/single-consumer, wait-free, fixed-capacity queue
// of Events. It is the inter-thread channel linking the realtime audio thread
// to the dispatcher: one Ring carries dispatcher->RT traffic, a second
// independent Ring carries RT->dispatcher traffic. Capacity is rounded up to
// a power of two so index wrapping is a mask instead of a modulo, following
// the same read/write-cursor technique as pkg/dsp/buffer.WriteAheadBuffer.
type Ring struct {
	data     []Event
	mask     uint32
	readPos  uint64
	writePos uint64
}

// NewRing creates a ring with at least capacity slots.
func NewRing(capacity int) *Ring {
	size := nextPowerOf2(uint32(capacity))
	return &Ring{
		data: make([]Event, size),
		mask: size - 1,
	}
}

// NewDefaultRing creates a ring sized for ordinary RT<->dispatcher traffic.
func NewDefaultRing() *Ring {
	return NewRing(defaultRingCapacity)
}

// Push enqueues e. It returns false if the ring is full; the caller (the
// single producer) must treat that as a dropped event, never retry-spin on
// the RT thread.
func (r *Ring) Push(e Event) bool {
	writePos := atomic.LoadUint64(&r.writePos)
	readPos := atomic.LoadUint64(&r.readPos)

	if writePos-readPos >= uint64(len(r.data)) {
		return false
	}

	r.data[uint32(writePos)&r.mask] = e
	atomic.StoreUint64(&r.writePos, writePos+1)
	return true
}

// Pop dequeues the oldest event into out. It returns false if the ring is
// empty.
func (r *Ring) Pop(out *Event) bool {
	readPos := atomic.LoadUint64(&r.readPos)
	writePos := atomic.LoadUint64(&r.writePos)

	if readPos >= writePos {
		return false
	}

	*out = r.data[uint32(readPos)&r.mask]
	atomic.StoreUint64(&r.readPos, readPos+1)
	return true
}

// Len returns the number of events currently queued. It is a snapshot, safe
// to call from either side for diagnostics, not for control flow.
func (r *Ring) Len() int {
	writePos := atomic.LoadUint64(&r.writePos)
	readPos := atomic.LoadUint64(&r.readPos)
	return int(writePos - readPos)
}

// Capacity returns the fixed number of slots in the ring.
func (r *Ring) Capacity() int {
	return len(r.data)
}

func nextPowerOf2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
