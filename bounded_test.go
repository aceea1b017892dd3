// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/xchan"
)

func TestBoundedBlockFullThenDrain(t *testing.T) {
	tx, rx := xchan.Bounded[int](4, xchan.Block)

	for i := range 4 {
		if res := tx.TrySend(i); !res.Ok() {
			t.Fatalf("TrySend(%d): got %v, want Ok", i, res.Status)
		}
	}
	if res := tx.TrySend(999); res.Status != xchan.StatusFull {
		t.Fatalf("TrySend on full: got %v, want Full", res.Status)
	}

	for i := range 4 {
		res := rx.TryRecv()
		if !res.Ok() {
			t.Fatalf("TryRecv(%d): got %v, want Ok", i, res.Status)
		}
		if res.Value != i {
			t.Fatalf("TryRecv(%d): got %d, want %d", i, res.Value, i)
		}
	}
	if res := rx.TryRecv(); res.Status != xchan.StatusEmpty {
		t.Fatalf("TryRecv on empty: got %v, want Empty", res.Status)
	}
}

// TestBoundedBlockExactCapacityNotRounded pins a non-power-of-two
// declared capacity and checks occupancy gates at exactly that number,
// not at the next power of two the underlying lock-free ring physically
// allocates.
func TestBoundedBlockExactCapacityNotRounded(t *testing.T) {
	const capacity = 1000
	tx, rx := xchan.Bounded[int](capacity, xchan.Block)

	for i := range capacity {
		if res := tx.TrySend(i); !res.Ok() {
			t.Fatalf("TrySend(%d): got %v, want Ok (occupancy %d < declared capacity %d)", i, res.Status, i, capacity)
		}
	}
	if res := tx.TrySend(-1); res.Status != xchan.StatusFull {
		t.Fatalf("TrySend at declared capacity %d: got %v, want Full (must not silently round up to the next power of two)", capacity, res.Status)
	}

	if res := rx.TryRecv(); !res.Ok() || res.Value != 0 {
		t.Fatalf("TryRecv: got %+v, want Ok(0)", res)
	}
	if res := tx.TrySend(capacity); !res.Ok() {
		t.Fatalf("TrySend after one Recv freed a slot: got %v, want Ok", res.Status)
	}
	if res := tx.TrySend(-2); res.Status != xchan.StatusFull {
		t.Fatalf("TrySend back at declared capacity: got %v, want Full", res.Status)
	}
}

func TestBoundedSendBlocksUntilRecv(t *testing.T) {
	tx, rx := xchan.Bounded[int](1, xchan.Block)
	if res := tx.TrySend(1); !res.Ok() {
		t.Fatalf("TrySend: %v", res.Status)
	}

	done := make(chan xchan.SendResult, 1)
	go func() {
		done <- tx.Send(context.Background(), 2)
	}()

	select {
	case <-done:
		t.Fatal("Send returned before a receiver made room")
	case <-time.After(20 * time.Millisecond):
	}

	if res := rx.Recv(context.Background()); !res.Ok() || res.Value != 1 {
		t.Fatalf("Recv: got %+v, want Ok(1)", res)
	}

	select {
	case res := <-done:
		if !res.Ok() {
			t.Fatalf("blocked Send: got %v, want Ok", res.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Send never unblocked after room freed")
	}
}

func TestBoundedOldestEvictsHead(t *testing.T) {
	var dropped []int
	tx, rx := xchan.Channel[int](2, xchan.ChannelOptions[int]{
		Policy: xchan.Oldest,
		OnDrop: func(v int) { dropped = append(dropped, v) },
	})
	for _, v := range []int{1, 2, 3} {
		if res := tx.TrySend(v); !res.Ok() {
			t.Fatalf("TrySend(%d): %v", v, res.Status)
		}
	}
	if len(dropped) != 1 || dropped[0] != 1 {
		t.Fatalf("dropped: got %v, want [1]", dropped)
	}
	want := []int{2, 3}
	for _, w := range want {
		res := rx.TryRecv()
		if !res.Ok() || res.Value != w {
			t.Fatalf("TryRecv: got %+v, want Ok(%d)", res, w)
		}
	}
}

func TestBoundedNewestRejectsIncoming(t *testing.T) {
	var dropped []int
	tx, rx := xchan.Channel[int](1, xchan.ChannelOptions[int]{
		Policy: xchan.Newest,
		OnDrop: func(v int) { dropped = append(dropped, v) },
	})
	if res := tx.TrySend(1); !res.Ok() {
		t.Fatalf("TrySend(1): %v", res.Status)
	}
	if res := tx.TrySend(2); !res.Ok() {
		t.Fatalf("TrySend(2) under Newest: got %v, want Ok", res.Status)
	}
	if len(dropped) != 1 || dropped[0] != 2 {
		t.Fatalf("dropped: got %v, want [2]", dropped)
	}
	if res := rx.TryRecv(); !res.Ok() || res.Value != 1 {
		t.Fatalf("TryRecv: got %+v, want Ok(1)", res)
	}
}

func TestLatestOnlyAlwaysHoldsNewest(t *testing.T) {
	tx, rx := xchan.Latest[int]()
	for _, v := range []int{1, 2, 3} {
		if res := tx.TrySend(v); !res.Ok() {
			t.Fatalf("TrySend(%d): %v", v, res.Status)
		}
	}
	res := rx.TryRecv()
	if !res.Ok() || res.Value != 3 {
		t.Fatalf("TryRecv: got %+v, want Ok(3)", res)
	}
	if res := rx.TryRecv(); res.Status != xchan.StatusEmpty {
		t.Fatalf("second TryRecv: got %v, want Empty", res.Status)
	}
}

func TestBoundedDisconnectAfterSenderClose(t *testing.T) {
	tx, rx := xchan.Bounded[int](4, xchan.Block)
	tx.TrySend(1)
	tx.Close()

	if res := rx.TryRecv(); !res.Ok() || res.Value != 1 {
		t.Fatalf("drain after close: got %+v, want Ok(1)", res)
	}
	if res := rx.TryRecv(); res.Status != xchan.StatusDisconnected {
		t.Fatalf("after drain: got %v, want Disconnected", res.Status)
	}
}

func TestBoundedSendToClosedReceiverDisconnects(t *testing.T) {
	tx, rx := xchan.Bounded[int](1, xchan.Block)
	rx.Close()
	if res := tx.TrySend(1); res.Status != xchan.StatusDisconnected {
		t.Fatalf("TrySend after receiver closed: got %v, want Disconnected", res.Status)
	}
}

func TestBoundedRecvTimeout(t *testing.T) {
	_, rx := xchan.Bounded[int](1, xchan.Block)
	start := time.Now()
	res := rx.RecvTimeout(20 * time.Millisecond)
	if res.Status != xchan.StatusTimeout {
		t.Fatalf("RecvTimeout: got %v, want Timeout", res.Status)
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("RecvTimeout returned suspiciously early")
	}
}

func TestBoundedRecvCancelableNeverLosesValue(t *testing.T) {
	tx, rx := xchan.Bounded[int](1, xchan.Block)
	resultCh, cancel := rx.RecvCancelable()
	time.Sleep(5 * time.Millisecond)
	tx.TrySend(42)
	cancel()
	res := <-resultCh
	if !res.Ok() || res.Value != 42 {
		t.Fatalf("RecvCancelable raced with a send: got %+v, want Ok(42)", res)
	}
}

// TestBoundedBlockConcurrentProducerConsumerNoDeadlock stresses a single
// producer and single consumer racing a small bounded buffer under
// Block, so that the producer's Send and the consumer's Recv are
// constantly parking and waking each other. This is the shape that
// regressed under the lost-wakeup race: a trySend/tryRecv observing
// Full/Empty, then a peer's free-slot wake landing before the waiter's
// own Park call, getting discarded into an empty park queue. A bounded
// test deadline turns a reintroduced regression into a loud failure
// instead of a hang.
func TestBoundedBlockConcurrentProducerConsumerNoDeadlock(t *testing.T) {
	tx, rx := xchan.Bounded[int](3, xchan.Block)
	const n = 20_000

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range n {
			if res := tx.Send(context.Background(), i); !res.Ok() {
				t.Errorf("Send(%d): %v", i, res.Status)
				return
			}
		}
		tx.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := range n {
		res := rx.Recv(ctx)
		if res.Status == xchan.StatusTimeout || res.Status == xchan.StatusCanceled {
			t.Fatalf("Recv(%d) timed out waiting for a wake — lost-wakeup regression: %v", i, res.Status)
		}
		if !res.Ok() || res.Value != i {
			t.Fatalf("Recv(%d): got %+v, want Ok(%d)", i, res, i)
		}
	}
	<-done
}

// TestMPSCCloneFanIn exercises MPSC: many cloned senders, one receiver,
// every value observed exactly once.
func TestMPSCCloneFanIn(t *testing.T) {
	if xchan.RaceEnabled {
		t.Skip("skip: FAA ring orders slots through atomic memory ordering the race detector cannot observe")
	}
	tx, rx := xchan.Bounded[int](16, xchan.Block)
	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		// Clone before tx.Close below, so the channel never sees its
		// sender count reach zero while producers are still starting.
		local := tx.Clone()
		go func(base int) {
			defer wg.Done()
			defer local.Close()
			for i := range perProducer {
				for local.Send(context.Background(), base*perProducer+i).Status == xchan.StatusFull {
				}
			}
		}(p)
	}
	tx.Close()

	seen := make(map[int]bool, producers*perProducer)
	for {
		res := rx.Recv(context.Background())
		if res.Status == xchan.StatusDisconnected {
			break
		}
		if !res.Ok() {
			t.Fatalf("Recv: unexpected status %v", res.Status)
		}
		if seen[res.Value] {
			t.Fatalf("value %d observed twice", res.Value)
		}
		seen[res.Value] = true
	}
	wg.Wait()
	if len(seen) != producers*perProducer {
		t.Fatalf("observed %d values, want %d", len(seen), producers*perProducer)
	}
}

func TestUnboundedNeverBlocksOrDrops(t *testing.T) {
	for _, chunked := range []bool{true, false} {
		t.Run(map[bool]string{true: "chunked", false: "growable"}[chunked], func(t *testing.T) {
			tx, rx := xchan.Unbounded[int](chunked)
			const n = 10_000
			for i := range n {
				if res := tx.TrySend(i); !res.Ok() {
					t.Fatalf("TrySend(%d): %v", i, res.Status)
				}
			}
			for i := range n {
				res := rx.TryRecv()
				if !res.Ok() || res.Value != i {
					t.Fatalf("TryRecv(%d): got %+v, want Ok(%d)", i, res, i)
				}
			}
		})
	}
}

// TestUnboundedGrowableCompacts exercises growableBuf's prefix
// compaction path: interleaved push/pop keeps the live region small
// while head advances well past growableCompactThreshold.
func TestUnboundedGrowableCompacts(t *testing.T) {
	tx, rx := xchan.Unbounded[int](false)
	const n = 5_000
	for i := range n {
		if res := tx.TrySend(i); !res.Ok() {
			t.Fatalf("TrySend(%d): %v", i, res.Status)
		}
		if i%2 == 1 {
			res := rx.TryRecv()
			if !res.Ok() {
				t.Fatalf("TryRecv after Send(%d): %v", i, res.Status)
			}
		}
	}
	var got []int
	for {
		res := rx.TryRecv()
		if !res.Ok() {
			break
		}
		got = append(got, res.Value)
	}
	if len(got) == 0 {
		t.Fatal("expected remaining values after draining interleaved sends/recvs")
	}
	for i, v := range got {
		if i > 0 && v != got[i-1]+1 {
			t.Fatalf("FIFO order broken at index %d: %d then %d", i, got[i-1], v)
		}
	}
}

func TestSPSCFIFO(t *testing.T) {
	tx, rx := xchan.SPSC[int](8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 1000 {
			for tx.Send(context.Background(), i).Status == xchan.StatusFull {
			}
		}
		tx.Close()
	}()
	for i := range 1000 {
		res := rx.Recv(context.Background())
		if !res.Ok() || res.Value != i {
			t.Fatalf("Recv(%d): got %+v, want Ok(%d)", i, res, i)
		}
	}
	<-done
	if res := rx.Recv(context.Background()); res.Status != xchan.StatusDisconnected {
		t.Fatalf("final Recv: got %v, want Disconnected", res.Status)
	}
}

func TestErrorsIsWouldBlock(t *testing.T) {
	if !errors.Is(xchan.ErrFull, xchan.ErrEmpty) {
		t.Fatal("ErrFull and ErrEmpty should both resolve to the same would-block sentinel")
	}
	if !xchan.IsWouldBlock(xchan.ErrFull) {
		t.Fatal("IsWouldBlock(ErrFull) should be true")
	}
}
