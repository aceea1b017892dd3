// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"sync"
	"sync/atomic"

	"code.hybscloud.com/xchan/internal/ring"
)

// faaBuf wraps the lock-free FAA ring (internal/ring.FAA, adapted from
// lfq's MPMC SCQ algorithm) for the Block drop policy: full means
// "reject," never "evict." This is the fast, truly lock-free path.
//
// ring.FAA's SCQ slot indexing needs its physical size to be a power of
// two, so the ring itself is over-allocated to RoundToPow2(capacity).
// spec.md §8's P2 ("occupancy ∈ [0,K]; trySend fails iff occupancy = K")
// requires the *declared* K to be exact, not rounded, so occupied gates
// pushes at exactly capacity regardless of how much physical room the
// ring has beyond it.
type faaBuf[T any] struct {
	r        *ring.FAA[T]
	capacity int64
	occupied atomic.Int64
}

func newFAABuf[T any](capacity int) *faaBuf[T] {
	return &faaBuf[T]{r: ring.NewFAA[T](capacity), capacity: int64(capacity)}
}

func (b *faaBuf[T]) tryPush(v T) (ok bool, dropped bool, droppedVal T) {
	for {
		cur := b.occupied.Load()
		if cur >= b.capacity {
			return false, false, droppedVal
		}
		if b.occupied.CompareAndSwap(cur, cur+1) {
			break
		}
	}
	if !b.r.TryPush(v) {
		// Unreachable in steady state: the ring's physical capacity is
		// always >= the declared capacity, so a reservation under the
		// declared capacity always has room. Kept as a safety net.
		b.occupied.Add(-1)
		return false, false, droppedVal
	}
	return true, false, droppedVal
}

func (b *faaBuf[T]) tryPop() (T, bool) {
	v, ok := b.r.TryPop()
	if ok {
		b.occupied.Add(-1)
	}
	return v, ok
}
func (b *faaBuf[T]) cap() int { return int(b.capacity) }
func (b *faaBuf[T]) len() int { return int(b.occupied.Load()) }
func (b *faaBuf[T]) drain()   { b.r.Drain() }

// spscBuf wraps the Lamport SPSC ring (internal/ring.SPSC, ported
// directly from lfq.SPSC) as a buffer[T], letting the SPSC channel
// kernel reuse multiKernel's send/recv/park machinery instead of
// duplicating it — cardinality (exactly one producer, one consumer) is
// enforced by SPSC's handle layer declining to expose Clone, not by the
// kernel, since ring.SPSC is itself only correct under that discipline.
type spscBuf[T any] struct {
	r *ring.SPSC[T]
}

func newSPSCBuf[T any](capacity int) *spscBuf[T] {
	return &spscBuf[T]{r: ring.NewSPSC[T](capacity)}
}

func (b *spscBuf[T]) tryPush(v T) (ok bool, dropped bool, droppedVal T) {
	return b.r.TryPush(v), false, droppedVal
}

func (b *spscBuf[T]) tryPop() (T, bool) { return b.r.TryPop() }
func (b *spscBuf[T]) cap() int          { return b.r.Cap() }
func (b *spscBuf[T]) len() int          { return b.r.Len() }

// policyBuf is a mutex-guarded sliding ring implementing the Oldest,
// Newest, and LatestOnly drop policies (spec.md §4.3). Eviction requires
// exclusive access to both ends of the ring at once, which the teacher's
// wait-free FAA algorithm deliberately does not support (it is not meant
// to overwrite live data) — so this is new code, grounded in the same
// head/tail/mask ring shape as internal/ring.SPSC but behind a mutex
// instead of atomics, since correctness here depends on doing "check full,
// evict, insert" as one atomic step rather than on per-index lock-freedom.
type policyBuf[T any] struct {
	mu       sync.Mutex
	buf      []T
	head     int
	tail     int
	count    int
	capacity int
	policy   DropPolicy
}

func newPolicyBuf[T any](capacity int, policy DropPolicy) *policyBuf[T] {
	if policy == LatestOnly {
		capacity = 1
	}
	return &policyBuf[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
		policy:   policy,
	}
}

func (b *policyBuf[T]) tryPush(v T) (ok bool, dropped bool, droppedVal T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < b.capacity {
		b.buf[b.tail] = v
		b.tail = (b.tail + 1) % b.capacity
		b.count++
		return true, false, droppedVal
	}

	switch b.policy {
	case Oldest:
		droppedVal = b.buf[b.head]
		b.buf[b.head] = v
		b.head = (b.head + 1) % b.capacity
		b.tail = (b.tail + 1) % b.capacity
		return true, true, droppedVal
	case Newest, LatestOnly:
		if b.policy == LatestOnly {
			// LatestOnly always replaces the single slot with the
			// newest value rather than rejecting it.
			droppedVal = b.buf[b.head]
			b.buf[b.head] = v
			return true, true, droppedVal
		}
		return true, true, v
	default:
		return false, false, droppedVal
	}
}

func (b *policyBuf[T]) tryPop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		var zero T
		return zero, false
	}
	v := b.buf[b.head]
	var zero T
	b.buf[b.head] = zero
	b.head = (b.head + 1) % b.capacity
	b.count--
	return v, true
}

func (b *policyBuf[T]) cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

func (b *policyBuf[T]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// chunkSize matches the teacher's design-notes recommendation (§9
// "Unbounded chunked buffer"): a linked list of fixed-size arrays amortizes
// allocation cost and keeps append/pop O(1) without a single large
// contiguous allocation that would need periodic reallocation/copy.
const chunkSize = 128

type chunk[T any] struct {
	vals [chunkSize]T
	next *chunk[T]
}

// unboundedBuf is a segmented chunked FIFO: head and tail each track a
// chunk pointer and an intra-chunk index (spec.md §9).
type unboundedBuf[T any] struct {
	mu         sync.Mutex
	head, tail *chunk[T]
	headIdx    int
	tailIdx    int
	count      int
}

func newUnboundedBuf[T any]() *unboundedBuf[T] {
	c := &chunk[T]{}
	return &unboundedBuf[T]{head: c, tail: c}
}

func (b *unboundedBuf[T]) tryPush(v T) (ok bool, dropped bool, droppedVal T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tailIdx == chunkSize {
		next := &chunk[T]{}
		b.tail.next = next
		b.tail = next
		b.tailIdx = 0
	}
	b.tail.vals[b.tailIdx] = v
	b.tailIdx++
	b.count++
	return true, false, droppedVal
}

func (b *unboundedBuf[T]) tryPop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		var zero T
		return zero, false
	}
	v := b.head.vals[b.headIdx]
	var zero T
	b.head.vals[b.headIdx] = zero
	b.headIdx++
	b.count--
	if b.headIdx == chunkSize {
		if b.head.next != nil {
			b.head = b.head.next
			b.headIdx = 0
		} else {
			// head == tail and the chunk is fully consumed: reuse it.
			b.headIdx, b.tailIdx = 0, 0
		}
	}
	return v, true
}

func (b *unboundedBuf[T]) cap() int { return -1 }
func (b *unboundedBuf[T]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// growableBuf is the `chunked: false` alternative spec.md §4.3/§6 name
// alongside the chunked linked-list: one contiguous slice that grows by
// ordinary Go append, with the consumed prefix reclaimed by an
// occasional compaction instead of amortized per-chunk. Simpler than
// unboundedBuf and with no O(1) per-append chunk-boundary check, at the
// cost of an O(n) copy whenever the live region is compacted — the
// tradeoff spec.md's "single growable array" alternative names.
type growableBuf[T any] struct {
	mu   sync.Mutex
	buf  []T
	head int
}

func newGrowableBuf[T any]() *growableBuf[T] {
	return &growableBuf[T]{}
}

func (b *growableBuf[T]) tryPush(v T) (ok bool, dropped bool, droppedVal T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, v)
	return true, false, droppedVal
}

// growableCompactThreshold bounds how much consumed-but-unreclaimed
// prefix a growableBuf tolerates before copying the live region down to
// index 0 — otherwise a long-lived channel's backing array would grow
// without bound even though its live length stays small.
const growableCompactThreshold = 256

func (b *growableBuf[T]) tryPop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head >= len(b.buf) {
		var zero T
		return zero, false
	}
	v := b.buf[b.head]
	var zero T
	b.buf[b.head] = zero
	b.head++
	if b.head >= growableCompactThreshold && b.head*2 >= len(b.buf) {
		live := len(b.buf) - b.head
		copy(b.buf[:live], b.buf[b.head:])
		b.buf = b.buf[:live]
		b.head = 0
	}
	return v, true
}

func (b *growableBuf[T]) cap() int { return -1 }
func (b *growableBuf[T]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) - b.head
}
