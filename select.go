// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan

import (
	"context"
	"time"
)

// Case is one branch offered to Select: a recv, a future, a stream pull,
// or a timer. Construct one with RecvBranch, FutureBranch, StreamBranch,
// TimerOnce, or TimerPeriodic.
//
// The shape mirrors the standard library's reflect.Select (chosen index
// plus a boxed value) rather than a generic combinator type, since
// branches carry heterogeneous element types that a single type parameter
// on Case cannot express; no library in the dependency pack offers a
// typed select-over-heterogeneous-channels combinator, so this part is
// deliberately built on the stdlib pattern instead of a third-party one.
type Case interface {
	// branchTrySync attempts an immediate, non-blocking fire, used during
	// Select's synchronous declaration-order pass. ok=false means not
	// ready yet.
	branchTrySync() (value any, ok bool)
	// branchRegister arranges to call fire exactly once when the branch
	// becomes ready, or never, if cancel is called first. It must not
	// call fire synchronously from within branchRegister itself.
	branchRegister(ctx context.Context, fire func(value any)) (cancel func())
}

// Select races every case and returns the first to become ready. Branches
// are tried synchronously in declaration order first (spec.md §4.7
// "fairness-preserving": if more than one is immediately ready, the
// earliest-declared wins, not an arbitrary one); only if none are ready
// does Select suspend, registering every branch and canceling the losers
// once one fires. Returns ok=false if ctx is done before any branch
// fires.
func Select(ctx context.Context, cases ...Case) (index int, value any, ok bool) {
	for i, c := range cases {
		if v, ready := c.branchTrySync(); ready {
			return i, v, true
		}
	}

	type result struct {
		index int
		value any
	}
	resultCh := make(chan result, 1)
	cancels := make([]func(), len(cases))
	for i, c := range cases {
		i, c := i, c
		cancels[i] = c.branchRegister(ctx, func(v any) {
			select {
			case resultCh <- result{index: i, value: v}:
			default:
			}
		})
	}
	defer func() {
		for _, cancel := range cancels {
			if cancel != nil {
				cancel()
			}
		}
	}()

	select {
	case r := <-resultCh:
		return r.index, r.value, true
	case <-ctx.Done():
		return -1, nil, false
	}
}

// As extracts a RecvResult[T] from a value Select returned. Use it when
// the winning index is a RecvBranch, FutureBranch, or StreamBranch of
// element type T.
func As[T any](value any) RecvResult[T] {
	return value.(RecvResult[T])
}

// recvCase is the Case implementation shared by RecvBranch, FutureBranch,
// and StreamBranch: all three race a Receiver[T] the same way. They stay
// distinct constructors because spec.md §4.7 distinguishes a multi-shot
// channel recv, a one-shot promise's settle, and a one-item stream pull
// as separate branch kinds, but underneath a Receiver[T] is a Receiver[T]
// regardless of which channel shape produced it.
type recvCase[T any] struct {
	rx *Receiver[T]
}

// RecvBranch races a receive from rx.
func RecvBranch[T any](rx *Receiver[T]) Case { return recvCase[T]{rx: rx} }

// FutureBranch races a one-shot promise's settle. rx is typically a
// Receiver obtained from OneShot.
func FutureBranch[T any](rx *Receiver[T]) Case { return recvCase[T]{rx: rx} }

// StreamBranch races the next element of rx's stream. A Select loop that
// wants the whole stream calls Select again after consuming each element.
func StreamBranch[T any](rx *Receiver[T]) Case { return recvCase[T]{rx: rx} }

func (c recvCase[T]) branchTrySync() (any, bool) {
	res := c.rx.TryRecv()
	if res.Status == StatusEmpty {
		return nil, false
	}
	return res, true
}

func (c recvCase[T]) branchRegister(ctx context.Context, fire func(any)) func() {
	cctx, cancel := context.WithCancel(ctx)
	go func() {
		res := c.rx.Recv(cctx)
		if res.Status == StatusCanceled && ctx.Err() == nil {
			// Lost the race: our own cancel tore down cctx, not the
			// caller's ctx. Nothing to report.
			return
		}
		fire(res)
	}()
	return cancel
}

// timerOnceCase fires once after d elapses.
type timerOnceCase struct {
	d time.Duration
}

// TimerOnce fires a single tick after d elapses. d<=0 fires immediately
// on the synchronous pass.
func TimerOnce(d time.Duration) Case { return timerOnceCase{d: d} }

func (c timerOnceCase) branchTrySync() (any, bool) {
	if c.d <= 0 {
		return time.Now(), true
	}
	return nil, false
}

func (c timerOnceCase) branchRegister(_ context.Context, fire func(any)) func() {
	t := time.NewTimer(c.d)
	stop := make(chan struct{})
	go func() {
		select {
		case tm := <-t.C:
			fire(tm)
		case <-stop:
			t.Stop()
		}
	}()
	return func() { close(stop) }
}

// timerPeriodicCase fires every d, compensating for drift: the next
// deadline is computed from the deadline that just fired rather than
// from the moment the caller got around to processing it, so a slow
// consumer's ticks don't creep later and later (spec.md §9 "periodic
// timer" design note). Not safe for concurrent use across goroutines —
// a single Select loop is the intended usage, matching how a timer
// branch is used in practice.
type timerPeriodicCase struct {
	d    time.Duration
	next time.Time
}

// TimerPeriodic returns a reusable Case that fires once every d.
func TimerPeriodic(d time.Duration) Case {
	return &timerPeriodicCase{d: d}
}

func (c *timerPeriodicCase) armed() time.Time {
	if c.next.IsZero() {
		c.next = time.Now().Add(c.d)
	}
	return c.next
}

func (c *timerPeriodicCase) advance(fired time.Time) {
	next := fired.Add(c.d)
	now := time.Now()
	for !next.After(now) {
		next = next.Add(c.d)
	}
	c.next = next
}

func (c *timerPeriodicCase) branchTrySync() (any, bool) {
	next := c.armed()
	if !time.Now().Before(next) {
		c.advance(next)
		return next, true
	}
	return nil, false
}

func (c *timerPeriodicCase) branchRegister(ctx context.Context, fire func(any)) func() {
	next := c.armed()
	d := time.Until(next)
	if d < 0 {
		d = 0
	}
	t := time.NewTimer(d)
	stop := make(chan struct{})
	go func() {
		select {
		case tm := <-t.C:
			c.advance(next)
			fire(tm)
		case <-stop:
			t.Stop()
		case <-ctx.Done():
			t.Stop()
		}
	}()
	return func() { close(stop) }
}
