// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tchannel

import (
	"io"
	"time"
)

// FrameStream pulls a finite, non-restartable sequence of frame
// contexts off an inbound byte stream: Next returns io.EOF once
// the stream ends cleanly at a frame boundary, and any other error
// leaves further iteration undefined. It holds no buffer beyond one
// in-flight frame body; each Next allocates that body afresh.
type FrameStream struct {
	r          io.Reader
	retryDelay time.Duration
	readLimit  int
}

// newFrameStream wraps r as a FrameStream. retryDelay and readLimit
// mirror Options.RetryDelay/Options.ReadLimit.
func newFrameStream(r io.Reader, retryDelay time.Duration, readLimit int) *FrameStream {
	return &FrameStream{r: r, retryDelay: retryDelay, readLimit: readLimit}
}

// Next decodes the next frame context from the stream, or returns
// io.EOF if the stream ended cleanly at a frame boundary.
func (s *FrameStream) Next() (Context, error) {
	return decodeFrame(s.r, s.retryDelay, s.readLimit)
}
