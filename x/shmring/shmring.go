// Package shmring is a single-producer, single-consumer ring of fixed-size
// values. The producer side never blocks and never allocates, so it may be
// driven from an interrupt handler.
package shmring

import "sync/atomic"

// Ring is safe for exactly one producer and one consumer.
type Ring[T any] struct {
	buf  []T
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // 0->>0 available edge
}

// New allocates a ring holding size values. size must be a power of two >= 2.
func New[T any](size int) *Ring[T] {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring[T]{
		buf:      make([]T, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring[T]) size() uint32 { return uint32(len(r.buf)) }

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Available returns queued values from the consumer's point of view.
func (r *Ring[T]) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// TryPush appends v and reports false when the ring is full.
func (r *Ring[T]) TryPush(v T) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	before := wr - rd
	if before >= r.size() {
		return false
	}
	r.buf[wr&r.mask] = v
	r.wr.Store(wr + 1) // release

	// Notify reader if we transitioned 0->>0 available
	if before == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return true
}

// TryPop removes the oldest value.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	if wr == rd {
		return v, false
	}
	v = r.buf[rd&r.mask]
	r.rd.Store(rd + 1) // release
	return v, true
}

// Drain pops up to len(dst) values into dst and returns the count.
func (r *Ring[T]) Drain(dst []T) int {
	n := 0
	for n < len(dst) {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		dst[n] = v
		n++
	}
	return n
}

// Readable yields a token when the ring goes from empty to non-empty.
// Tokens coalesce; consumers must drain until TryPop reports false.
func (r *Ring[T]) Readable() <-chan struct{} { return r.readable }
