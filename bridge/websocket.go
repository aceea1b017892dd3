// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bridge

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketPort is a Port backed by a single gorilla/websocket
// connection. Send serializes writers with a mutex, matching
// gorilla/websocket's requirement that a connection have at most one
// writer at a time; Recv has no such requirement since ReadMessage is
// only ever called from the bridge's one pump goroutine.
type WebSocketPort struct {
	conn   *websocket.Conn
	connMu sync.Mutex
}

// NewWebSocketPort wraps an already-established connection.
func NewWebSocketPort(conn *websocket.Conn) *WebSocketPort {
	return &WebSocketPort{conn: conn}
}

func (p *WebSocketPort) Send(ctx context.Context, frame []byte) error {
	if dl, ok := ctx.Deadline(); ok {
		p.connMu.Lock()
		_ = p.conn.SetWriteDeadline(dl)
		p.connMu.Unlock()
	}
	p.connMu.Lock()
	defer p.connMu.Unlock()
	return p.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (p *WebSocketPort) Recv(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = p.conn.SetReadDeadline(dl)
	}
	_, data, err := p.conn.ReadMessage()
	return data, err
}

func (p *WebSocketPort) Close() error {
	return p.conn.Close()
}
