// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"context"
	"sync/atomic"
	"time"
)

// rendezvousKernel implements the cap=0 channel: send never returns
// before a matched recv accepts the value (spec.md §3 P3). Go's native
// unbuffered channel already *is* the rendezvous primitive — reimplementing
// direct producer/consumer handoff with a mutex and park queues would just
// reproduce what the runtime gives for free, so this kernel is a thin
// layer adding the sender/receiver reference counting and close protocol
// (spec.md §3 "Handle lifecycle") around one.
type rendezvousKernel[T any] struct {
	ch   chan T
	opts ChannelOptions[T]

	senderCount, receiverCount atomic.Int32
	sendersGone, receiversGone atomic.Bool
	sendersGoneCh              chan struct{}
	receiversGoneCh            chan struct{}
}

func newRendezvousKernel[T any](opts ChannelOptions[T]) *rendezvousKernel[T] {
	k := &rendezvousKernel[T]{
		ch:              make(chan T),
		opts:            opts,
		sendersGoneCh:   make(chan struct{}),
		receiversGoneCh: make(chan struct{}),
	}
	k.senderCount.Store(1)
	k.receiverCount.Store(1)
	return k
}

func (k *rendezvousKernel[T]) trySend(v T) SendResult {
	if k.receiversGone.Load() {
		return sendStatus(StatusDisconnected)
	}
	start := time.Now()
	select {
	case k.ch <- v:
		k.opts.recordSend(true, time.Since(start).Nanoseconds())
		return sendOk
	default:
		return sendStatus(StatusFull)
	}
}

func (k *rendezvousKernel[T]) send(ctx context.Context, v T) SendResult {
	if k.receiversGone.Load() {
		return sendStatus(StatusDisconnected)
	}
	start := time.Now()
	select {
	case k.ch <- v:
		k.opts.recordSend(true, time.Since(start).Nanoseconds())
		return sendOk
	case <-k.receiversGoneCh:
		return sendStatus(StatusDisconnected)
	case <-ctx.Done():
		return sendStatus(ctxStatus(ctx))
	}
}

func (k *rendezvousKernel[T]) tryRecv() RecvResult[T] {
	select {
	case v := <-k.ch:
		return recvOk(v)
	default:
		if k.sendersGone.Load() {
			return recvStatus[T](StatusDisconnected)
		}
		return recvStatus[T](StatusEmpty)
	}
}

func (k *rendezvousKernel[T]) recv(ctx context.Context) RecvResult[T] {
	select {
	case v := <-k.ch:
		return recvOk(v)
	case <-k.sendersGoneCh:
		// A value and the sender-close can race; prefer a value that
		// is already sitting in the handoff rather than report
		// Disconnected prematurely.
		select {
		case v := <-k.ch:
			return recvOk(v)
		default:
			return recvStatus[T](StatusDisconnected)
		}
	case <-ctx.Done():
		return recvStatus[T](ctxStatus(ctx))
	}
}

func (k *rendezvousKernel[T]) addSender()   { k.senderCount.Add(1) }
func (k *rendezvousKernel[T]) addReceiver() { k.receiverCount.Add(1) }

func (k *rendezvousKernel[T]) dropSender() {
	if k.senderCount.Add(-1) == 0 {
		k.sendersGone.Store(true)
		close(k.sendersGoneCh)
		k.opts.recordClose()
	}
}

func (k *rendezvousKernel[T]) dropReceiver() {
	if k.receiverCount.Add(-1) == 0 {
		k.receiversGone.Store(true)
		close(k.receiversGoneCh)
	}
}

func (k *rendezvousKernel[T]) cap() int     { return 0 }
func (k *rendezvousKernel[T]) len() int     { return 0 }
func (k *rendezvousKernel[T]) closed() bool { return k.sendersGone.Load() }

func ctxStatus(ctx context.Context) Status {
	if ctx.Err() == context.DeadlineExceeded {
		return StatusTimeout
	}
	return StatusCanceled
}
