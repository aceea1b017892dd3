// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"
)

// Sender is a handle for sending values of type T into a channel. The
// zero value is not usable; obtain one from a constructor (Bounded,
// Unbounded, Rendezvous, Latest, OneShot) or Clone.
type Sender[T any] struct {
	k        chanKernel[T]
	cloneOK  bool
	closed   atomic.Bool
}

func newSender[T any](k chanKernel[T], cloneOK bool) Sender[T] {
	return Sender[T]{k: k, cloneOK: cloneOK}
}

// Send blocks until the value is accepted, the channel disconnects, or
// ctx is done.
func (s *Sender[T]) Send(ctx context.Context, v T) SendResult {
	return s.k.send(ctx, v)
}

// TrySend attempts a non-blocking send.
func (s *Sender[T]) TrySend(v T) SendResult {
	return s.k.trySend(v)
}

// Clone creates an additional sender handle sharing the same channel.
// SPSC and OneShot senders panic on Clone; senders from every other
// constructor permit it, matching spec.md §3's "clone (MPSC/MPMC)
// increments sender count."
func (s *Sender[T]) Clone() Sender[T] {
	if !s.cloneOK {
		panic("xchan: this sender does not support Clone")
	}
	s.k.addSender()
	return newSender(s.k, true)
}

// Close releases this sender handle. When the last sender handle closes,
// the channel transitions to closing: receivers drain the remaining
// buffer, then observe Disconnected. Close is idempotent.
func (s *Sender[T]) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.k.dropSender()
	}
}

// Cap reports the channel's capacity, or -1 for unbounded.
func (s *Sender[T]) Cap() int { return s.k.cap() }

// Len reports an approximate current occupancy. Diagnostic only.
func (s *Sender[T]) Len() int { return s.k.len() }

// Receiver is a handle for receiving values of type T from a channel.
type Receiver[T any] struct {
	k       chanKernel[T]
	cloneOK bool
	closed  atomic.Bool
}

func newReceiver[T any](k chanKernel[T], cloneOK bool) Receiver[T] {
	return Receiver[T]{k: k, cloneOK: cloneOK}
}

// Recv blocks until a value is available, the channel disconnects, or ctx
// is done.
func (r *Receiver[T]) Recv(ctx context.Context) RecvResult[T] {
	return r.k.recv(ctx)
}

// TryRecv attempts a non-blocking receive.
func (r *Receiver[T]) TryRecv() RecvResult[T] {
	return r.k.tryRecv()
}

// RecvCancelable starts a receive and returns a channel that delivers its
// result plus a cancel function. Calling cancel before the result arrives
// aborts the wait with StatusCanceled; it never discards a value that was
// already handed to this receive (spec.md §5 "cancellation never loses a
// value").
func (r *Receiver[T]) RecvCancelable() (<-chan RecvResult[T], func()) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan RecvResult[T], 1)
	go func() { out <- r.k.recv(ctx) }()
	return out, cancel
}

// RecvTimeout blocks until a value is available, the channel disconnects,
// or d elapses, whichever comes first. Equivalent to
// Select(ctx, RecvBranch(r), TimerOnce(d)) with the timeout branch mapped
// to StatusTimeout (spec.md §5).
func (r *Receiver[T]) RecvTimeout(d time.Duration) RecvResult[T] {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return r.k.recv(ctx)
}

// Stream returns a lazy sequence of received values, terminated when the
// channel disconnects. It is the range-over-func rendition of spec.md
// §6's "stream() → lazy infinite sequence terminated by disconnect":
//
//	for v := range rx.Stream() {
//	    process(v)
//	}
func (r *Receiver[T]) Stream() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			res := r.k.recv(context.Background())
			if !res.Ok() {
				return
			}
			if !yield(res.Value) {
				return
			}
		}
	}
}

// Clone creates an additional receiver handle sharing the same channel.
// SPSC and OneShot receivers panic on Clone; receivers from every other
// constructor permit it (broadcast subscribers clone via Subscriber.Clone).
func (r *Receiver[T]) Clone() Receiver[T] {
	if !r.cloneOK {
		panic("xchan: this receiver does not support Clone")
	}
	r.k.addReceiver()
	return newReceiver(r.k, true)
}

// Close releases this receiver handle. When the last receiver handle
// closes, senders observe Disconnected on their next send. Close is
// idempotent.
func (r *Receiver[T]) Close() {
	if r.closed.CompareAndSwap(false, true) {
		r.k.dropReceiver()
	}
}

// Cap reports the channel's capacity, or -1 for unbounded.
func (r *Receiver[T]) Cap() int { return r.k.cap() }

// Len reports an approximate current occupancy. Diagnostic only.
func (r *Receiver[T]) Len() int { return r.k.len() }

// String supports %v in test failure messages and logs.
func (r RecvResult[T]) String() string {
	if r.Status == StatusLagged {
		return fmt.Sprintf("Lagged(skipped=%d)", r.Skipped)
	}
	return r.Status.String()
}
