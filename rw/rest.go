// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rw

import (
	"io"

	"github.com/kangkot/tchannel/wire"
)

// rest reads every remaining byte in the stream as an opaque []byte and
// writes a []byte verbatim, without any length prefix. It has no fixed
// contribution to a containing Chain/Dictionary's Width since its size
// is, by construction, whatever is left over - it only makes sense as
// the last field of a record decoded from a bounded sub-stream (such as
// a frame body), the way CallReq/CallRes use it for the argument bytes
// a fragmentation layer above this core would interpret.
type rest struct{}

// Rest returns a combinator that consumes the remainder of the stream
// as raw bytes. Width is 0.
func Rest() ReadWriter { return rest{} }

func (rest) Width() int { return 0 }

func (rest) Read(r io.Reader) (any, error) {
	// The frame codec hands combinators a bounded sub-stream (the frame
	// body), so this loop terminates on that sub-stream's own EOF rather
	// than the underlying connection's.
	buf := make([]byte, 0, 64)
	chunk := make([]byte, 512)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			if wire.IsControlFlow(err) {
				return nil, err
			}
			return nil, wire.NewReadError("rest: %w", err)
		}
	}
}

func (rest) Write(v any, w io.Writer) error {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return wire.WriteFull(w, x)
	default:
		return wire.NewProtocolError("rest: value %T is not []byte", v)
	}
}
