// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package park implements the ordered park-queue primitive shared by every
// xchan kernel: a FIFO of suspended operations with removal on
// cancellation (a linear scan of the queue, not O(1)) and cooperative
// handoff of wakes that arrive after their intended recipient has already
// given up.
package park

import "sync"

// Waiter is a single parked operation. It carries a one-shot wake signal
// and no back-pointer: Remove locates it by its identity in Queue's slice
// with a linear scan, O(n) in the number of parked waiters (park-queue
// depth is bounded by the number of concurrently blocked goroutines on
// one channel).
type Waiter struct {
	c chan struct{}
}

// NewWaiter allocates a fresh, unparked Waiter.
func NewWaiter() *Waiter {
	return &Waiter{c: make(chan struct{}, 1)}
}

// C returns the channel that receives exactly one value when this waiter
// is woken.
func (w *Waiter) C() <-chan struct{} {
	return w.c
}

func (w *Waiter) wake() {
	select {
	case w.c <- struct{}{}:
	default:
	}
}

// Queue is an ordered list of parked waiters with FIFO wake discipline
// (spec: "Park queue ... ordered list of operations suspended waiting on a
// state change; FIFO by arrival").
type Queue struct {
	mu      sync.Mutex
	waiters []*Waiter
}

// Park enqueues w at the tail of the queue.
func (q *Queue) Park(w *Waiter) {
	q.mu.Lock()
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()
}

// Remove takes w out of the queue before it has been woken. Reports
// whether w was still present (true) or had already been popped and woken
// by a concurrent WakeOne/WakeAll (false) — the caller (a canceller) must
// forward the wake via WakeOne in the false case so it is not lost on the
// floor (cooperative handoff).
func (q *Queue) Remove(w *Waiter) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, cur := range q.waiters {
		if cur == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// WakeOne pops and wakes the FIFO head of the queue, if any. Returns
// whether a waiter was woken.
func (q *Queue) WakeOne() bool {
	q.mu.Lock()
	if len(q.waiters) == 0 {
		q.mu.Unlock()
		return false
	}
	w := q.waiters[0]
	q.waiters = q.waiters[1:]
	q.mu.Unlock()
	w.wake()
	return true
}

// WakeAll pops and wakes every waiter currently parked (used on close,
// which must rouse every suspended peer so it can observe Disconnected).
func (q *Queue) WakeAll() int {
	q.mu.Lock()
	waiters := q.waiters
	q.waiters = nil
	q.mu.Unlock()
	for _, w := range waiters {
		w.wake()
	}
	return len(waiters)
}

// Len reports the current number of parked waiters. Diagnostic only.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}
