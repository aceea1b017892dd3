// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bridge_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/xchan/bridge"
)

// fakePort is an in-memory Port: Send appends to an inbox another fakePort
// reads from, letting tests exercise the bridge without a real socket.
type fakePort struct {
	mu     sync.Mutex
	inbox  [][]byte
	cond   *sync.Cond
	closed bool
}

func newFakePort() *fakePort {
	p := &fakePort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *fakePort) deliver(frame []byte) {
	p.mu.Lock()
	p.inbox = append(p.inbox, frame)
	p.cond.Signal()
	p.mu.Unlock()
}

func (p *fakePort) Send(_ context.Context, frame []byte) error {
	return nil
}

func (p *fakePort) Recv(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	for len(p.inbox) == 0 && !p.closed {
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				p.cond.Broadcast()
			case <-done:
			}
		}()
		p.cond.Wait()
		close(done)
		if ctx.Err() != nil {
			p.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	if p.closed && len(p.inbox) == 0 {
		p.mu.Unlock()
		return nil, errors.New("fakePort: closed")
	}
	frame := p.inbox[0]
	p.inbox = p.inbox[1:]
	p.mu.Unlock()
	return frame, nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	return nil
}

func TestToReceiverDecodesFrames(t *testing.T) {
	port := newFakePort()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rx, g := bridge.ToReceiver[int](ctx, port, 4, func(frame []byte) (int, error) {
		return strconv.Atoi(string(frame))
	}, nil)

	for _, s := range []string{"1", "2", "3"} {
		port.deliver([]byte(s))
	}

	for i := 1; i <= 3; i++ {
		res := rx.Recv(context.Background())
		if !res.Ok() || res.Value != i {
			t.Fatalf("Recv: got %+v, want Ok(%d)", res, i)
		}
	}

	cancel()
	if err := g.Wait(); err == nil {
		t.Fatal("g.Wait(): got nil, want the pump's terminating error after ctx cancel")
	}
}

func TestToReceiverDropsUndecodableFrames(t *testing.T) {
	port := newFakePort()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rx, _ := bridge.ToReceiver[int](ctx, port, 4, func(frame []byte) (int, error) {
		return strconv.Atoi(string(frame))
	}, nil)

	port.deliver([]byte("not-a-number"))
	port.deliver([]byte("42"))

	res := rx.Recv(context.Background())
	if !res.Ok() || res.Value != 42 {
		t.Fatalf("Recv: got %+v, want Ok(42), undecodable frame should have been skipped", res)
	}
}

type recordingPort struct {
	*fakePort
	sent [][]byte
	mu   sync.Mutex
}

func (p *recordingPort) Send(ctx context.Context, frame []byte) error {
	p.mu.Lock()
	p.sent = append(p.sent, append([]byte(nil), frame...))
	p.mu.Unlock()
	return p.fakePort.Send(ctx, frame)
}

func TestRPCCallAndDispatch(t *testing.T) {
	port := &recordingPort{fakePort: newFakePort()}
	rpc := bridge.NewRPC(port, nil)

	go func() {
		time.Sleep(5 * time.Millisecond)
		rpc.Dispatch("req-1", []byte("reply"))
	}()

	reply, err := rpc.Call(context.Background(), "req-1", []byte("payload"))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(reply) != "reply" {
		t.Fatalf("reply: got %q, want reply", reply)
	}
}

func TestRPCCallTimesOutWithoutDispatch(t *testing.T) {
	port := &recordingPort{fakePort: newFakePort()}
	rpc := bridge.NewRPC(port, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()
	_, err := rpc.Call(ctx, "req-2", []byte("payload"))
	if err == nil {
		t.Fatal("Call: got nil error, want timeout since nothing ever Dispatches a reply")
	}
}

func TestRPCDispatchUnknownIDReturnsFalse(t *testing.T) {
	port := &recordingPort{fakePort: newFakePort()}
	rpc := bridge.NewRPC(port, nil)
	if rpc.Dispatch("no-such-call", []byte("x")) {
		t.Fatal("Dispatch: got true, want false for an id with no pending Call")
	}
}
