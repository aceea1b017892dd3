// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"context"
	"sync"
	"sync/atomic"

	"code.hybscloud.com/xchan/internal/park"
	"code.hybscloud.com/xchan/internal/ring"
)

// broadcastRing is the slot ring behind Broadcast: a fixed capacity C
// (power of two), a monotonically increasing sequence counter, and a
// per-subscriber cursor. Unlike the bounded FAA backends, the ring is
// guarded by a single mutex rather than lock-free atomics: spec.md §4.6's
// "verify its stored seq equals cursor, retry on mismatch" step exists to
// guard a race that is only possible when publish and read are not
// serialized with each other. Serializing them with one mutex makes that
// race structurally impossible and is simpler than reproducing it
// lock-free for no behavioral gain — send is still never blocked by a
// subscriber, which is the property the spec actually requires.
type broadcastRing[T any] struct {
	mu      sync.Mutex
	slots   []broadcastSlot[T]
	mask    uint64
	nextSeq uint64
	closed  bool

	subCount atomic.Int32
	wake     park.Queue
	opts     ChannelOptions[T]
}

type broadcastSlot[T any] struct {
	seq   uint64
	value T
}

func newBroadcastRing[T any](capacity int, opts ChannelOptions[T]) *broadcastRing[T] {
	n := uint64(ring.RoundToPow2(capacity))
	return &broadcastRing[T]{slots: make([]broadcastSlot[T], n), mask: n - 1, opts: opts}
}

// Publisher sends broadcast values; see [Broadcast].
type Publisher[T any] struct {
	r *broadcastRing[T]
}

// Send writes v to the ring and wakes every subscriber. Never blocks: a
// full ring overwrites its oldest live slot, and a subscriber count of
// zero does not prevent send (spec.md §4.6).
func (p Publisher[T]) Send(v T) SendResult {
	p.r.mu.Lock()
	if p.r.closed {
		p.r.mu.Unlock()
		return sendStatus(StatusDisconnected)
	}
	seq := p.r.nextSeq
	p.r.slots[seq&p.r.mask] = broadcastSlot[T]{seq: seq, value: v}
	p.r.nextSeq = seq + 1
	p.r.mu.Unlock()
	if n := p.r.wake.WakeAll(); n > 0 {
		p.r.opts.recordWake(true)
	}
	p.r.opts.recordSend(true, 0)
	return sendOk
}

// Subscribe creates a subscriber whose cursor starts at the current
// sequence: it observes only values sent after Subscribe returns, never
// backlog (spec.md leaves the exact starting cursor unstated; DESIGN.md
// records this as the chosen resolution). A subscriber created after
// Close immediately observes Disconnected on its first Recv, with
// Skipped set to its birth cursor (spec.md's frozen resolution for the
// subscribe/close race: the entire backlog it never had a chance to
// read).
func (p Publisher[T]) Subscribe() Subscriber[T] {
	p.r.mu.Lock()
	cursor := p.r.nextSeq
	bornAfterClose := p.r.closed
	p.r.mu.Unlock()
	p.r.subCount.Add(1)
	return Subscriber[T]{r: p.r, cursor: cursor, bornAfterClose: bornAfterClose}
}

// Close terminates the ring: pending subscribers observe Disconnected
// once they've drained the backlog still inside the ring's window.
func (p Publisher[T]) Close() {
	p.r.mu.Lock()
	alreadyClosed := p.r.closed
	p.r.closed = true
	p.r.mu.Unlock()
	p.r.wake.WakeAll()
	if !alreadyClosed {
		p.r.opts.recordClose()
	}
}

// Subscriber receives broadcast values via its own cursor; see
// [Publisher.Subscribe].
type Subscriber[T any] struct {
	r              *broadcastRing[T]
	cursor         uint64
	bornAfterClose bool
	closed         atomic.Bool
}

func (s *Subscriber[T]) windowFloor(seq, ringLen uint64) uint64 {
	if seq > ringLen {
		return seq - ringLen
	}
	return 0
}

// TryRecv attempts a non-blocking receive.
func (s *Subscriber[T]) TryRecv() RecvResult[T] {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return s.recvLocked()
}

func (s *Subscriber[T]) recvLocked() RecvResult[T] {
	if s.bornAfterClose {
		s.bornAfterClose = false
		return RecvResult[T]{Status: StatusDisconnected, Skipped: s.cursor}
	}
	seq := s.r.nextSeq
	if s.cursor == seq {
		if s.r.closed {
			return recvStatus[T](StatusDisconnected)
		}
		return recvStatus[T](StatusEmpty)
	}
	floor := s.windowFloor(seq, uint64(len(s.r.slots)))
	if s.cursor < floor {
		skipped := floor - s.cursor
		s.cursor = floor
		return recvLagged[T](skipped)
	}
	slot := s.r.slots[s.cursor&s.r.mask]
	val := slot.value
	s.cursor++
	return recvOk(val)
}

// Recv blocks until a value is available, the publisher closes, or ctx is
// done.
func (s *Subscriber[T]) Recv(ctx context.Context) RecvResult[T] {
	for {
		s.r.mu.Lock()
		res := s.recvLocked()
		s.r.mu.Unlock()
		if res.Status != StatusEmpty {
			return res
		}
		ready := func() bool {
			s.r.mu.Lock()
			defer s.r.mu.Unlock()
			return s.cursor != s.r.nextSeq || s.r.closed
		}
		if retry, terminal := parkWait(ctx, &s.r.wake, ready); !retry {
			return recvStatus[T](terminal)
		}
	}
}

// Clone creates a new subscriber starting at this subscriber's current
// cursor — a fork of the subscription point, not a shared cursor.
func (s *Subscriber[T]) Clone() Subscriber[T] {
	s.r.mu.Lock()
	cursor := s.cursor
	bornAfterClose := s.bornAfterClose
	s.r.mu.Unlock()
	s.r.subCount.Add(1)
	return Subscriber[T]{r: s.r, cursor: cursor, bornAfterClose: bornAfterClose}
}

// Close releases this subscriber. Idempotent. A broadcast publisher keeps
// publishing regardless of subscriber count, so Close never affects the
// publisher side — it only stops this handle from counting toward
// diagnostics.
func (s *Subscriber[T]) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.r.subCount.Add(-1)
	}
}
