// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bridge adapts an OS-level or transport message port — anything
// that can send and receive discrete byte frames — into an xchan
// channel, and layers a request/reply RPC helper on top. Grounded on the
// websocket client shape in nugget-thane-ai-agent's
// internal/homeassistant/websocket.go (a pending-replies-by-id map
// guarding a single connection) and wired to a concrete
// [github.com/gorilla/websocket] Port implementation.
package bridge

import (
	"context"
	"io"
)

// Port is the minimal transport a bridge needs: discrete frame send/recv
// and a way to tear the connection down. A concrete implementation is
// provided by [NewWebSocketPort].
type Port interface {
	Send(ctx context.Context, frame []byte) error
	Recv(ctx context.Context) ([]byte, error)
	io.Closer
}
