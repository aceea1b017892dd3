// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xchan_test

import (
	"context"
	"sync"
	"testing"

	"code.hybscloud.com/xchan"
)

func TestBroadcastThreeSubscribersOneSlow(t *testing.T) {
	pub, fast1 := xchan.Broadcast[int](4)
	fast2 := pub.Subscribe()
	slow := pub.Subscribe()

	const n = 2
	for i := range n {
		if res := pub.Send(i); !res.Ok() {
			t.Fatalf("Send(%d): %v", i, res.Status)
		}
	}
	pub.Close()

	for _, rx := range []*xchan.Subscriber[int]{&fast1, &fast2} {
		for i := range n {
			res := rx.Recv(context.Background())
			if !res.Ok() || res.Value != i {
				t.Fatalf("fast subscriber: got %+v, want Ok(%d)", res, i)
			}
		}
		if res := rx.Recv(context.Background()); res.Status != xchan.StatusDisconnected {
			t.Fatalf("fast subscriber after drain: got %v, want Disconnected", res.Status)
		}
	}

	// The slow subscriber reads after close too, but still sees
	// everything published since it never fell behind the ring window.
	for i := range n {
		res := slow.Recv(context.Background())
		if !res.Ok() || res.Value != i {
			t.Fatalf("slow subscriber: got %+v, want Ok(%d)", res, i)
		}
	}
}

func TestBroadcastLagReportsSkipped(t *testing.T) {
	pub, sub := xchan.Broadcast[int](2)
	for i := range 5 {
		pub.Send(i)
	}
	res := sub.Recv(context.Background())
	if res.Status != xchan.StatusLagged {
		t.Fatalf("Recv after overrun: got %v, want Lagged", res.Status)
	}
	if res.Skipped != 3 {
		t.Fatalf("Skipped: got %d, want 3", res.Skipped)
	}
	// Cursor is now at the window floor; the remaining two values in the
	// ring (3, 4) are still readable.
	for _, want := range []int{3, 4} {
		res := sub.Recv(context.Background())
		if !res.Ok() || res.Value != want {
			t.Fatalf("after lag: got %+v, want Ok(%d)", res, want)
		}
	}
}

func TestBroadcastSendNeverBlocksWithoutSubscribers(t *testing.T) {
	pub, sub := xchan.Broadcast[int](1)
	sub.Close()
	if res := pub.Send(1); !res.Ok() {
		t.Fatalf("Send with no live subscribers: got %v, want Ok", res.Status)
	}
}

func TestBroadcastSubscribeAfterCloseIsDisconnected(t *testing.T) {
	pub, _ := xchan.Broadcast[int](4)
	for i := range 3 {
		pub.Send(i)
	}
	pub.Close()
	sub := pub.Subscribe()
	res := sub.Recv(context.Background())
	if res.Status != xchan.StatusDisconnected {
		t.Fatalf("subscriber created after close: got %v, want Disconnected", res.Status)
	}
	if res.Skipped != 3 {
		t.Fatalf("Skipped: got %d, want 3 (the full backlog this subscriber never saw)", res.Skipped)
	}
	// A second Recv after the one-time skipped report behaves like an
	// ordinary disconnected subscriber with no backlog to account for.
	res2 := sub.Recv(context.Background())
	if res2.Status != xchan.StatusDisconnected || res2.Skipped != 0 {
		t.Fatalf("second Recv: got %+v, want Disconnected with Skipped=0", res2)
	}
}

func TestBroadcastClonedSubscriberForksCursor(t *testing.T) {
	pub, sub := xchan.Broadcast[int](4)
	pub.Send(1)

	first := sub.Recv(context.Background())
	if !first.Ok() || first.Value != 1 {
		t.Fatalf("Recv: got %+v, want Ok(1)", first)
	}

	clone := sub.Clone()
	pub.Send(2)

	// Both the original and the clone started their next read after
	// value 1, so both observe 2.
	for _, rx := range []*xchan.Subscriber[int]{&sub, &clone} {
		res := rx.Recv(context.Background())
		if !res.Ok() || res.Value != 2 {
			t.Fatalf("Recv: got %+v, want Ok(2)", res)
		}
	}
}

func TestBroadcastConcurrentSubscribersNoRace(t *testing.T) {
	pub, _ := xchan.Broadcast[int](16)
	const subs = 8
	const n = 200

	var wg sync.WaitGroup
	for range subs {
		wg.Add(1)
		sub := pub.Subscribe()
		go func(s xchan.Subscriber[int]) {
			defer wg.Done()
			count := 0
			for {
				res := s.Recv(context.Background())
				if res.Status == xchan.StatusDisconnected {
					return
				}
				if res.Ok() || res.Status == xchan.StatusLagged {
					count++
				}
			}
		}(sub)
	}

	for i := range n {
		pub.Send(i)
	}
	pub.Close()
	wg.Wait()
}
