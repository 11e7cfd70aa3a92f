// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"

	"nhooyr.io/websocket"
)

// WebSocket adapts an nhooyr.io/websocket connection to the
// io.ReadWriter byte-stream contract by speaking one binary WebSocket
// message per Write call and buffering partial Reads across message
// boundaries, the boundary-preserving adaptation a SeqPacket transport
// needs to present as a plain stream to the frame codec.
type WebSocket struct {
	ctx  context.Context
	conn *websocket.Conn
	buf  []byte
}

// NewWebSocket wraps conn. ctx bounds every Read/Write; callers that
// want no deadline should pass context.Background().
func NewWebSocket(ctx context.Context, conn *websocket.Conn) *WebSocket {
	return &WebSocket{ctx: ctx, conn: conn}
}

// Read fills p from the current buffered message, pulling a fresh
// binary message from the connection once the buffer is drained.
// Non-binary messages are discarded: TChannel has no text-frame use.
func (w *WebSocket) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		typ, data, err := w.conn.Read(w.ctx)
		if err != nil {
			return 0, err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		w.buf = data
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

// Write emits p as a single binary WebSocket message.
func (w *WebSocket) Write(p []byte) (int, error) {
	if err := w.conn.Write(w.ctx, websocket.MessageBinary, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying WebSocket connection with a normal
// closure status.
func (w *WebSocket) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "close")
}
