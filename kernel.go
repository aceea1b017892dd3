// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"code.hybscloud.com/xchan/internal/park"
)

// parkWait suspends the caller on q until woken or ctx is done. It
// returns true if the caller should retry its operation (a wake arrived,
// meaning the buffer may have changed), or false with the terminal Status
// the caller should return.
//
// ready is consulted once, immediately after parking: a peer can free the
// condition this waiter is parked on and issue its wake in the window
// between the caller's last failed try and this call's q.Park — the wake
// lands on an empty queue and is discarded (park.Queue.WakeOne/WakeAll
// return false/0). Re-testing ready() after we're enqueued closes that
// window exactly rather than approximately: if it now holds, we remove
// ourselves and retry immediately instead of waiting for a wake that was
// already lost. If removal fails, a real wake arrived concurrently and is
// already sitting in w.C(), so the select below claims it without delay.
//
// On ctx cancellation, if the waiter had already been popped and woken by
// a concurrent WakeOne/WakeAll before Remove ran, the wake is forwarded to
// the next parked peer rather than dropped — the cooperative wake handoff
// spec.md §9 requires so a cancellation race never strands a value nobody
// will come back to claim.
func parkWait(ctx context.Context, q *park.Queue, ready func() bool) (retry bool, terminal Status) {
	w := park.NewWaiter()
	q.Park(w)
	if ready() && q.Remove(w) {
		return true, 0
	}
	select {
	case <-w.C():
		return true, 0
	case <-ctx.Done():
		if !q.Remove(w) {
			q.WakeOne()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, StatusTimeout
		}
		return false, StatusCanceled
	}
}

// multiKernel is the shared kernel behind MPSC, SPMC, and MPMC channels —
// any cardinality whose data path is a single shared buffer plus a pair of
// park queues. It generalizes lfq's three near-identical kernel shapes
// (mpsc.go/spmc.go/mpmc.go) into one, parameterized by which buffer[T]
// backs it (see buffer.go) and which Sender/Receiver wrapper exposes Clone
// (see handle.go) — the cardinality restriction lives at the handle layer,
// not here. Every buffer except spscBuf is safe for any mix of
// producers/consumers; SPSC's handles decline Clone to keep spscBuf to
// one of each.
type multiKernel[T any] struct {
	buf        buffer[T]
	opts       ChannelOptions[T]
	sendParked park.Queue
	recvParked park.Queue

	senderCount   atomic.Int32
	receiverCount atomic.Int32
	sendersGone   atomic.Bool
	receiversGone atomic.Bool
}

func newMultiKernel[T any](buf buffer[T], opts ChannelOptions[T]) *multiKernel[T] {
	k := &multiKernel[T]{buf: buf, opts: opts}
	k.senderCount.Store(1)
	k.receiverCount.Store(1)
	return k
}

func (k *multiKernel[T]) trySend(v T) SendResult {
	if k.receiversGone.Load() {
		return sendStatus(StatusDisconnected)
	}
	start := time.Now()
	ok, dropped, droppedVal := k.buf.tryPush(v)
	if !ok {
		k.opts.recordSend(false, time.Since(start).Nanoseconds())
		return sendStatus(StatusFull)
	}
	if dropped {
		k.opts.onDrop(droppedVal)
		k.opts.recordDrop()
	}
	if k.recvParked.WakeOne() {
		k.opts.recordWake(false)
	}
	k.opts.recordSend(true, time.Since(start).Nanoseconds())
	return sendOk
}

func (k *multiKernel[T]) send(ctx context.Context, v T) SendResult {
	for {
		res := k.trySend(v)
		if res.Status != StatusFull {
			return res
		}
		if k.receiversGone.Load() {
			return sendStatus(StatusDisconnected)
		}
		ready := func() bool {
			return k.receiversGone.Load() || k.buf.len() < k.buf.cap()
		}
		if retry, terminal := parkWait(ctx, &k.sendParked, ready); !retry {
			return sendStatus(terminal)
		}
	}
}

func (k *multiKernel[T]) tryRecv() RecvResult[T] {
	start := time.Now()
	v, ok := k.buf.tryPop()
	if ok {
		if k.sendParked.WakeOne() {
			k.opts.recordWake(false)
		}
		k.opts.recordRecv(true, time.Since(start).Nanoseconds())
		return recvOk(v)
	}
	k.opts.recordRecv(false, time.Since(start).Nanoseconds())
	if k.sendersGone.Load() {
		return recvStatus[T](StatusDisconnected)
	}
	return recvStatus[T](StatusEmpty)
}

func (k *multiKernel[T]) recv(ctx context.Context) RecvResult[T] {
	for {
		res := k.tryRecv()
		if res.Status != StatusEmpty {
			return res
		}
		ready := func() bool {
			return k.sendersGone.Load() || k.buf.len() > 0
		}
		if retry, terminal := parkWait(ctx, &k.recvParked, ready); !retry {
			return recvStatus[T](terminal)
		}
	}
}

func (k *multiKernel[T]) addSender()   { k.senderCount.Add(1) }
func (k *multiKernel[T]) addReceiver() { k.receiverCount.Add(1) }

func (k *multiKernel[T]) dropSender() {
	if k.senderCount.Add(-1) == 0 {
		k.sendersGone.Store(true)
		// No further pushes will occur: let a Block-policy FAA ring's
		// consumers drain what remains without its livelock-prevention
		// threshold mistaking sender silence for contention. See
		// faaBuf.drain and lfq's Drainer (types.go).
		if d, ok := k.buf.(interface{ drain() }); ok {
			d.drain()
		}
		if n := k.recvParked.WakeAll(); n > 0 {
			k.opts.recordWake(true)
		}
		k.opts.recordClose()
	}
}

func (k *multiKernel[T]) dropReceiver() {
	if k.receiverCount.Add(-1) == 0 {
		k.receiversGone.Store(true)
		if n := k.sendParked.WakeAll(); n > 0 {
			k.opts.recordWake(true)
		}
	}
}

func (k *multiKernel[T]) cap() int  { return k.buf.cap() }
func (k *multiKernel[T]) len() int  { return k.buf.len() }
func (k *multiKernel[T]) closed() bool {
	return k.sendersGone.Load() && k.buf.len() == 0
}
