// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"context"
	"sync"
)

// oneshotKernel is the single-slot promise channel: sender_count and
// receiver_count are each fixed at 1 by construction (no Clone), and
// ConsumeOnce picks whether the first receive consumes the slot
// permanently or the value remains latched for repeated peeks.
type oneshotKernel[T any] struct {
	mu          sync.Mutex
	value       T
	hasValue    bool
	consumed    bool
	senderGone  bool
	consumeOnce bool
	opts        ChannelOptions[T]

	done     chan struct{}
	doneOnce sync.Once
}

func newOneshotKernel[T any](consumeOnce bool, opts ChannelOptions[T]) *oneshotKernel[T] {
	return &oneshotKernel[T]{consumeOnce: consumeOnce, opts: opts, done: make(chan struct{})}
}

func (k *oneshotKernel[T]) signal() {
	k.doneOnce.Do(func() { close(k.done) })
}

// trySend and send share an implementation: the write and the wake are a
// single atomic transition (spec.md §4.5), so there is nothing for send
// to suspend on.
func (k *oneshotKernel[T]) trySend(v T) SendResult {
	k.mu.Lock()
	if k.hasValue || k.senderGone {
		k.mu.Unlock()
		return sendStatus(StatusDisconnected)
	}
	k.value = v
	k.hasValue = true
	k.mu.Unlock()
	k.opts.recordSend(true, 0)
	k.signal()
	return sendOk
}

func (k *oneshotKernel[T]) send(_ context.Context, v T) SendResult {
	return k.trySend(v)
}

func (k *oneshotKernel[T]) tryRecv() RecvResult[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.hasValue {
		if k.consumeOnce {
			if k.consumed {
				return recvStatus[T](StatusDisconnected)
			}
			k.consumed = true
		}
		k.opts.recordRecv(true, 0)
		return recvOk(k.value)
	}
	if k.senderGone {
		return recvStatus[T](StatusDisconnected)
	}
	return recvStatus[T](StatusEmpty)
}

func (k *oneshotKernel[T]) recv(ctx context.Context) RecvResult[T] {
	for {
		if res := k.tryRecv(); res.Status != StatusEmpty {
			return res
		}
		select {
		case <-k.done:
			continue
		case <-ctx.Done():
			return recvStatus[T](ctxStatus(ctx))
		}
	}
}

func (k *oneshotKernel[T]) addSender()   {}
func (k *oneshotKernel[T]) addReceiver() {}

func (k *oneshotKernel[T]) dropSender() {
	k.mu.Lock()
	alreadyGone := k.senderGone
	k.senderGone = true
	k.mu.Unlock()
	k.signal()
	if !alreadyGone {
		k.opts.recordClose()
	}
}

func (k *oneshotKernel[T]) dropReceiver() {}

func (k *oneshotKernel[T]) cap() int { return 1 }
func (k *oneshotKernel[T]) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.hasValue && !k.consumed {
		return 1
	}
	return 0
}
func (k *oneshotKernel[T]) closed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.senderGone && !k.hasValue
}
