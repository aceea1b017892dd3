// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ring provides the lock-free bounded L1 queue backends behind
// xchan's kernels: the Lamport SPSC ring and the FAA-based MPSC/MPMC
// ring. The unbounded and drop-policy buffers live in package xchan
// itself (buffer.go). These are
// adapted from code.hybscloud.com/lfq's SPSC and MPSC algorithms,
// generalized from pointer-in/value-out try-only queues into the backend
// shape the xchan kernels build park queues and close protocol on top of.
package ring

import (
	"code.hybscloud.com/atomix"
)

type pad [64]byte

// SPSC is a single-producer single-consumer bounded ring: Lamport's ring
// buffer with cached index optimization, ported from lfq's SPSC.
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64
	_          pad
	cachedTail uint64
	_          pad
	tail       atomix.Uint64
	_          pad
	cachedHead uint64
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates an SPSC ring. Capacity rounds up to the next power of 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	n := uint64(RoundToPow2(capacity))
	return &SPSC[T]{buffer: make([]T, n), mask: n - 1}
}

// TryPush stores v at the tail (producer only). Reports whether the ring
// had room.
func (q *SPSC[T]) TryPush(v T) bool {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return false
		}
	}
	q.buffer[tail&q.mask] = v
	q.tail.StoreRelease(tail + 1)
	return true
}

// TryPop removes the head element (consumer only).
func (q *SPSC[T]) TryPop() (T, bool) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, false
		}
	}
	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, true
}

// Cap reports the ring's physical capacity (a power of two).
func (q *SPSC[T]) Cap() int { return int(q.mask + 1) }

// Len reports an approximate occupancy; the producer and consumer indices
// are read independently and without a shared lock, so the result may be
// stale by the time the caller observes it. Diagnostic use only.
func (q *SPSC[T]) Len() int {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	if tail < head {
		return 0
	}
	return int(tail - head)
}

// RoundToPow2 rounds n up to the next power of 2, minimum 2.
func RoundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
