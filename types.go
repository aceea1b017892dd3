// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import "context"

// chanKernel is the internal interface every channel variant's kernel
// implements. Sender[T] and Receiver[T] are thin handles over it; the
// kernel owns the buffer, the park queues, the reference counts, and the
// closed flag (spec.md §3 "Channel state").
type chanKernel[T any] interface {
	// trySend attempts a non-blocking send. Never blocks.
	trySend(v T) SendResult
	// send blocks (subject to ctx) until the value is accepted or the
	// channel disconnects.
	send(ctx context.Context, v T) SendResult
	// tryRecv attempts a non-blocking receive. Never blocks.
	tryRecv() RecvResult[T]
	// recv blocks (subject to ctx) until a value is available or the
	// channel disconnects.
	recv(ctx context.Context) RecvResult[T]

	// addSender/addReceiver increment the respective reference count;
	// used by Clone. dropSender/dropReceiver decrement it, running the
	// close protocol (spec.md §3 "Handle lifecycle") when the count
	// reaches zero.
	addSender()
	dropSender()
	addReceiver()
	dropReceiver()

	cap() int  // -1 for unbounded
	len() int  // diagnostic only, see internal/ring.SPSC.Len
	closed() bool
}

// buffer is the storage strategy multiKernel wraps: ring.FAA for the
// Block policy (MPSC/SPMC/MPMC), ring.SPSC for the SPSC channel, a
// mutex-guarded sliding ring (Oldest/Newest/LatestOnly), or an unbounded
// queue (chunked or growable). Rendezvous doesn't use this abstraction —
// it is built on a native Go channel (see rendezvous.go).
type buffer[T any] interface {
	// tryPush stores v. ok is false only for a full Block-policy ring;
	// every drop policy reports ok. dropped/droppedVal report the value
	// the policy discarded: the evicted head (Oldest), the incoming v
	// itself (Newest), or the replaced slot value (LatestOnly).
	tryPush(v T) (ok bool, dropped bool, droppedVal T)
	tryPop() (T, bool)
	cap() int // -1 for unbounded
	len() int
}
