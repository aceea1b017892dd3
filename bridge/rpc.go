// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"code.hybscloud.com/xchan"
)

// RPC layers request/reply semantics over a Port: Call sends its payload
// unchanged (the id is not written into the frame) and waits for the
// reply that the caller's own inbound handling hands to Dispatch under
// the same id; nothing in this package calls Dispatch. Each in-flight call
// is backed by its own one-shot promise (xchan.OneShot), mirroring the
// pending-replies-by-id map in nugget-thane-ai-agent's WSClient but built
// on this package's channel kernels instead of a bare chan.
type RPC struct {
	port Port
	log  *logrus.Logger

	mu      sync.Mutex
	pending map[string]xchan.Sender[[]byte]
}

// NewRPC wraps port for request/reply use. log may be nil, in which case
// logrus's standard logger is used.
func NewRPC(port Port, log *logrus.Logger) *RPC {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RPC{port: port, log: log, pending: make(map[string]xchan.Sender[[]byte])}
}

// Call sends payload and blocks until Dispatch delivers the reply tagged
// with id, the port fails, or ctx is done.
func (r *RPC) Call(ctx context.Context, id string, payload []byte) ([]byte, error) {
	tx, rx := xchan.OneShot[[]byte](true)
	r.mu.Lock()
	r.pending[id] = tx
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.pending, id)
		r.mu.Unlock()
		tx.Close()
	}()

	if err := r.port.Send(ctx, payload); err != nil {
		return nil, fmt.Errorf("bridge: rpc %s: send: %w", id, err)
	}

	res := rx.Recv(ctx)
	if !res.Ok() {
		return nil, fmt.Errorf("bridge: rpc %s: %w", id, xchan.StatusErr(res.Status))
	}
	return res.Value, nil
}

// Dispatch routes an inbound frame already demultiplexed to id toward the
// Call waiting on it. Reports whether a waiter was found; an unmatched
// reply (false) is logged and dropped — it may belong to a Call that
// already timed out.
func (r *RPC) Dispatch(id string, data []byte) bool {
	r.mu.Lock()
	tx, ok := r.pending[id]
	r.mu.Unlock()
	if !ok {
		r.log.WithField("rpc_id", id).Debug("bridge: reply for unknown or expired call, dropping")
		return false
	}
	tx.TrySend(data)
	return true
}
