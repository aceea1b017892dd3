// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

// Channel is the fully configurable bounded constructor every other
// bounded constructor (Bounded, Latest) delegates to. Policy Block gets
// the lock-free FAA ring; Oldest/Newest/LatestOnly get the mutex-guarded
// sliding ring, since the FAA algorithm cannot safely overwrite live
// slots (see buffer.go). Returned handles permit Clone on both ends —
// this constructor backs MPSC, SPMC, and MPMC alike; callers who need
// SPSC's stricter one-writer-one-reader discipline (and its faster ring)
// should use SPSC instead.
func Channel[T any](capacity int, opts ChannelOptions[T]) (Sender[T], Receiver[T]) {
	var buf buffer[T]
	if opts.Policy == Block {
		buf = newFAABuf[T](capacity)
	} else {
		buf = newPolicyBuf[T](capacity, opts.Policy)
	}
	k := newMultiKernel[T](buf, opts)
	return newSender[T](k, true), newReceiver[T](k, true)
}

// Bounded creates a fixed-capacity channel with the given drop policy and
// default options.
func Bounded[T any](capacity int, policy DropPolicy) (Sender[T], Receiver[T]) {
	return Channel[T](capacity, ChannelOptions[T]{Policy: policy})
}

// Latest creates a capacity-1 channel whose single slot always holds the
// most recently sent value (DropPolicy LatestOnly).
func Latest[T any]() (Sender[T], Receiver[T]) {
	return Channel[T](1, ChannelOptions[T]{Policy: LatestOnly})
}

// Unbounded creates a channel with no capacity limit; send never blocks
// and never drops. chunked selects the backing buffer: true (the
// default recommended shape) uses a segmented linked list of fixed-size
// chunks that amortizes allocation cost; false uses one contiguous
// growable array, simpler but with an occasional O(n) compaction as the
// consumed prefix is reclaimed.
func Unbounded[T any](chunked bool) (Sender[T], Receiver[T]) {
	var buf buffer[T]
	if chunked {
		buf = newUnboundedBuf[T]()
	} else {
		buf = newGrowableBuf[T]()
	}
	k := newMultiKernel[T](buf, ChannelOptions[T]{})
	return newSender[T](k, true), newReceiver[T](k, true)
}

// SPSC creates a single-producer/single-consumer channel backed by the
// Lamport ring. Its handles do not support Clone: a second writer or
// reader would violate the ring's single-producer/single-consumer
// discipline.
func SPSC[T any](capacity int) (Sender[T], Receiver[T]) {
	k := newMultiKernel[T](newSPSCBuf[T](capacity), ChannelOptions[T]{})
	return newSender[T](k, false), newReceiver[T](k, false)
}

// Rendezvous creates a capacity-0 channel: send does not return until a
// receive accepts the value.
func Rendezvous[T any]() (Sender[T], Receiver[T]) {
	k := newRendezvousKernel[T](ChannelOptions[T]{})
	return newSender[T](k, true), newReceiver[T](k, true)
}

// OneShot creates a single-slot promise channel. consumeOnce selects
// whether the first receive consumes the value permanently (true) or the
// value remains latched for repeated peeks (false). Handles do not
// support Clone: sender and receiver counts are each fixed at 1.
func OneShot[T any](consumeOnce bool) (Sender[T], Receiver[T]) {
	k := newOneshotKernel[T](consumeOnce, ChannelOptions[T]{})
	return newSender[T](k, false), newReceiver[T](k, false)
}

// Broadcast creates a lossy single-producer/multi-consumer ring of the
// given capacity (rounded up to a power of two) and an initial
// subscriber. Additional subscribers come from Publisher.Subscribe or
// Subscriber.Clone.
func Broadcast[T any](capacity int) (Publisher[T], Subscriber[T]) {
	r := newBroadcastRing[T](capacity, ChannelOptions[T]{})
	pub := Publisher[T]{r: r}
	return pub, pub.Subscribe()
}
