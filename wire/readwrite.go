// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wire

import "io"

// ReadFull reads exactly n bytes from r, the way every fixed-width
// primitive in the rw package needs to. A reader that reports (0, nil)
// on a non-empty buffer is a contract violation, not silence to loop
// through forever.
//
// A short read at EOF (zero or partial progress before the stream ends)
// becomes a *ReadError; a non-blocking control-flow signal
// (ErrWouldBlock / ErrMore) is returned unchanged so callers layering a
// non-blocking transport can retry at the right layer.
func ReadFull(r io.Reader, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got := 0
	for got < n {
		rn, err := r.Read(buf[got:])
		if rn == 0 && err == nil {
			return nil, io.ErrNoProgress
		}
		got += rn
		if err != nil {
			if IsControlFlow(err) {
				return nil, err
			}
			if err == io.EOF {
				if got == 0 {
					return nil, NewReadError("%w", io.EOF)
				}
				return nil, NewReadError("%w", io.ErrUnexpectedEOF)
			}
			return nil, NewReadError("%w", err)
		}
	}
	return buf, nil
}

// WriteFull writes all of p to w, translating a short write without an
// error (an io.Writer contract violation) into io.ErrShortWrite.
func WriteFull(w io.Writer, p []byte) error {
	off := 0
	for off < len(p) {
		n, err := w.Write(p[off:])
		if n == 0 && err == nil {
			return io.ErrShortWrite
		}
		off += n
		if err != nil {
			if IsControlFlow(err) {
				return err
			}
			return err
		}
	}
	return nil
}
