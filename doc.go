// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package xchan provides typed, asynchronous, in-process message-passing
// channels: bounded and unbounded FIFOs across every producer/consumer
// cardinality, a one-shot promise, a lossy broadcast ring, and a select
// composer that races heterogeneous events with cancellation.
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	tx, rx := xchan.Bounded[Event](1024, xchan.Block)
//	tx, rx := xchan.Unbounded[Request](true)
//	tx, rx := xchan.Rendezvous[Signal]()
//
// # Basic Usage
//
// All channels share send/recv semantics built around a small result
// taxonomy rather than exceptions:
//
//	tx, rx := xchan.Bounded[int](16, xchan.Block)
//
//	if res := tx.TrySend(42); !res.Ok() {
//	    // res.Status == xchan.StatusFull
//	}
//
//	res := rx.Recv(context.Background())
//	if res.Ok() {
//	    fmt.Println(res.Value)
//	}
//
// # Channel Variants
//
//	Bounded(cap, policy)  - fixed-capacity ring, drop policy applies when full
//	Rendezvous()          - capacity 0, send and recv synchronize directly
//	Unbounded(chunked)    - growable buffer, never applies backpressure
//	Latest()              - single slot, always holds the most recent value
//	OneShot(consumeOnce)  - single-value promise
//	Broadcast(capacity)   - lossy SPMC ring, each Subscribe gets its own cursor
//
// # Drop Policies
//
// Bounded channels accept a [DropPolicy] governing what happens when the
// ring is full: Block (the default, senders park), Oldest (evict the head
// to make room), Newest (reject the incoming value), or LatestOnly
// (capacity 1, each send replaces the held value).
//
// # Composing with select
//
// [Select] races an ordered list of branches — Recv, Future, Stream, or
// timers — resolving on the first ready one and canceling every loser:
//
//	idx, v, ok := xchan.Select(ctx,
//	    xchan.RecvBranch(&rx),
//	    xchan.TimerOnce(50*time.Millisecond),
//	)
//	if ok && idx == 0 {
//	    fmt.Println(xchan.As[Event](v).Value)
//	}
//
// # Thread Safety
//
// Every kernel is safe for concurrent use within its declared cardinality:
// SPSC admits exactly one producer goroutine and one consumer goroutine;
// MPSC/MPMC/Broadcast admit any number on the unconstrained sides. Cloning
// a sender or receiver (where the cardinality allows it) is itself
// concurrency-safe.
//
// # Dependencies
//
// The bounded-ring backends use [code.hybscloud.com/atomix] for atomics
// with explicit memory ordering and [code.hybscloud.com/spin] for bounded
// spin-wait inside producer/consumer CAS loops, and
// [code.hybscloud.com/iox] for the ecosystem's semantic would-block error.
package xchan
