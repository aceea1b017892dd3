// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ring

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// FAA is a fetch-and-add bounded ring backing every Block-policy bounded
// multi-party xchan kernel (MPSC, SPMC, MPMC). It is lfq's MPMC SCQ algorithm
// (Nikolaev, DISC 2019) generalized to all three cardinalities: the
// algorithm is already safe for a single producer or a single consumer, so
// rather than carry three near-identical copies (as lfq.MPSC/SPMC/MPMC do
// for their wait-free single-party fast paths) xchan's kernel layer picks
// the discipline (single producer, single consumer, or both) and this one
// backend serves all of them — the FAA path degrades to, but never needs
// to special-case, the single-party case.
type FAA[T any] struct {
	_         pad
	tail      atomix.Uint64
	_         pad
	head      atomix.Uint64
	_         pad
	threshold atomix.Int64
	_         pad
	draining  atomix.Bool
	_         pad
	buffer    []faaSlot[T]
	capacity  uint64
	size      uint64
	mask      uint64
}

type faaSlot[T any] struct {
	cycle atomix.Uint64
	data  T
}

// NewFAA creates a bounded FAA ring. Capacity rounds up to the next power
// of two; physical slot count is 2n for capacity n.
func NewFAA[T any](capacity int) *FAA[T] {
	n := uint64(RoundToPow2(capacity))
	size := n * 2

	q := &FAA[T]{
		buffer:   make([]faaSlot[T], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}
	q.threshold.StoreRelaxed(3*int64(n) - 1)
	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}
	return q
}

// TryPush claims a slot and stores v. Reports whether the ring had room.
func (q *FAA[T]) TryPush(v T) bool {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()
		if tail >= head+q.capacity {
			return false
		}

		myTail := q.tail.AddAcqRel(1) - 1
		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.data = v
			slot.cycle.StoreRelease(expectedCycle + 1)
			q.threshold.StoreRelaxed(3*int64(q.capacity) - 1)
			return true
		}
		if int64(slotCycle) < int64(expectedCycle) {
			return false
		}
		sw.Once()
	}
}

// Drain signals that no more pushes will occur, letting consumers drain
// the ring without the livelock-prevention threshold blocking them.
func (q *FAA[T]) Drain() {
	q.draining.StoreRelease(true)
}

// TryPop removes the head element. Reports whether an element was
// available.
func (q *FAA[T]) TryPop() (T, bool) {
	if !q.draining.LoadAcquire() && q.threshold.LoadRelaxed() < 0 {
		var zero T
		return zero, false
	}

	sw := spin.Wait{}
	for {
		myHead := q.head.AddAcqRel(1) - 1
		slot := &q.buffer[myHead&q.mask]
		expectedCycle := myHead/q.capacity + 1
		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			elem := slot.data
			var zero T
			slot.data = zero
			nextEnqCycle := (myHead + q.size) / q.capacity
			slot.cycle.StoreRelease(nextEnqCycle)
			return elem, true
		}

		if int64(slotCycle) < int64(expectedCycle) {
			nextEnqCycle := (myHead + q.size) / q.capacity
			slot.cycle.CompareAndSwapAcqRel(slotCycle, nextEnqCycle)

			tail := q.tail.LoadAcquire()
			if tail <= myHead+1 {
				q.catchup(tail, myHead+1)
				q.threshold.AddAcqRel(-1)
				var zero T
				return zero, false
			}
			if q.threshold.AddAcqRel(-1) <= 0 && !q.draining.LoadAcquire() {
				var zero T
				return zero, false
			}
		}
		sw.Once()
	}
}

func (q *FAA[T]) catchup(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

// Cap returns the ring's usable capacity.
func (q *FAA[T]) Cap() int { return int(q.capacity) }

// Len reports an approximate occupancy (diagnostic only; see SPSC.Len).
func (q *FAA[T]) Len() int {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	if tail < head {
		return 0
	}
	n := tail - head
	if n > q.capacity {
		return int(q.capacity)
	}
	return int(n)
}
