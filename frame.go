// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tchannel

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"
	"time"

	"github.com/kangkot/tchannel/messages"
	"github.com/kangkot/tchannel/rw"
	"github.com/kangkot/tchannel/wire"
)

const (
	frameHeaderLen = 16
	// maxFrameBodyLen is the largest body a 16-bit total-size field can
	// address: 65535 total bytes minus the 16-byte header.
	maxFrameBodyLen = 1<<16 - 1 - frameHeaderLen
)

// Context is the (message id, message) pair the frame stream yields and
// the outbound path consumes.
type Context struct {
	ID      uint32
	Message messages.Message
}

var catalogSwitch = buildCatalogSwitch()

func buildCatalogSwitch() map[uint64]rw.ReadWriter {
	cases := make(map[uint64]rw.ReadWriter, len(messages.Catalog))
	for tag, rwc := range messages.Catalog {
		cases[uint64(tag)] = rwc
	}
	return cases
}

// waitOnceOnWouldBlock applies the configured retry policy: negative
// means return immediately, zero means cooperatively yield and retry,
// positive means sleep that long and retry.
func waitOnceOnWouldBlock(retryDelay time.Duration) bool {
	if retryDelay < 0 {
		return false
	}
	if retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(retryDelay)
	return true
}

// readAll reads exactly n bytes from r, cooperatively retrying on
// ErrWouldBlock/ErrMore per retryDelay. Partial progress is not
// persisted across a returned ErrWouldBlock: RetryDelay >= 0 is the
// supported mode for non-blocking transports; RetryDelay < 0 is
// intended for transports (the TCP/Unix/WebSocket adapters in
// transport/) that never produce ErrWouldBlock in the first place.
func readAll(r io.Reader, n int, retryDelay time.Duration) ([]byte, error) {
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
			if wire.IsControlFlow(err) {
				if waitOnceOnWouldBlock(retryDelay) {
					continue
				}
				return nil, err
			}
			if err == io.EOF {
				if got == 0 {
					return nil, io.EOF
				}
				return nil, wire.NewReadError("%w", io.ErrUnexpectedEOF)
			}
			return nil, wire.NewReadError("%w", err)
		}
	}
	return buf, nil
}

func writeAll(w io.Writer, p []byte, retryDelay time.Duration) error {
	off := 0
	for off < len(p) {
		n, err := w.Write(p[off:])
		if n == 0 && err == nil {
			return io.ErrShortWrite
		}
		off += n
		if err != nil {
			if wire.IsControlFlow(err) {
				if waitOnceOnWouldBlock(retryDelay) {
					continue
				}
				return err
			}
			return err
		}
	}
	return nil
}

// decodeFrame reads exactly one frame header plus body from r, or
// cleanly returns io.EOF if the stream ended at a frame boundary.
// Header width is fixed at 16 bytes; the body length is
// size-16. Any leftover bytes in the body buffer after the variant's
// combinator reads its payload are a *ProtocolError (trailing garbage).
// readLimit, when positive, caps the accepted body length (Options.
// ReadLimit); zero means no limit beyond the 16-bit size field's own
// ceiling.
func decodeFrame(r io.Reader, retryDelay time.Duration, readLimit int) (Context, error) {
	header, err := readAll(r, frameHeaderLen, retryDelay)
	if err != nil {
		return Context{}, err
	}

	size := binary.BigEndian.Uint16(header[0:2])
	typ := header[2]
	id := binary.BigEndian.Uint32(header[4:8])

	if int(size) < frameHeaderLen {
		return Context{}, wire.NewProtocolError("frame size %d smaller than header", size)
	}
	bodyLen := int(size) - frameHeaderLen
	if readLimit > 0 && bodyLen > readLimit {
		return Context{}, wire.NewProtocolError("frame body of %d bytes exceeds read limit of %d", bodyLen, readLimit)
	}

	body, err := readAll(r, bodyLen, retryDelay)
	if err != nil {
		return Context{}, err
	}

	bodyStream := bytes.NewReader(body)
	tv, err := rw.Switch(rw.Number(1), catalogSwitch).Read(readerWithByte(typ, bodyStream))
	if err != nil {
		return Context{}, err
	}
	tag := tv.(rw.TagValue)
	if bodyStream.Len() > 0 {
		return Context{}, wire.NewProtocolError("%d trailing bytes in frame body", bodyStream.Len())
	}

	msg, _ := tag.Payload.(messages.Message)
	if msg == nil {
		// Unknown type tag: yield an empty-payload context without
		// terminating the stream.
		msg = unknownMessage{typ: messages.Type(typ)}
	}
	return Context{ID: id, Message: msg}, nil
}

// readerWithByte prepends a single byte (the already-consumed type tag)
// back onto body so the shared rw.Switch combinator handles the frame
// header's tag dispatch instead of duplicating the catalog lookup
// logic here.
func readerWithByte(b byte, r io.Reader) io.Reader {
	return io.MultiReader(bytes.NewReader([]byte{b}), r)
}

// unknownMessage is the empty-payload stand-in for a type tag outside
// the known catalog.
type unknownMessage struct{ typ messages.Type }

func (u unknownMessage) Type() messages.Type    { return u.typ }
func (u unknownMessage) Fields() map[string]any { return map[string]any{} }

// encodeFrame serializes (id, message) as one frame onto w. Because a
// combinator's Width is only the prefix contribution for
// variable-length payloads, the body must be serialized to a scratch
// buffer first to learn its true length before the header - carrying
// the correct size - can be written.
func encodeFrame(w io.Writer, id uint32, msg messages.Message, scratch *bytes.Buffer, retryDelay time.Duration) error {
	scratch.Reset()
	rwc, ok := messages.Catalog[msg.Type()]
	if !ok {
		return wire.NewProtocolError("no combinator registered for type %v", msg.Type())
	}
	if err := rwc.Write(msg, scratch); err != nil {
		return err
	}
	if scratch.Len() > maxFrameBodyLen {
		return wire.NewProtocolError("frame body of %d bytes exceeds %d byte limit", scratch.Len(), maxFrameBodyLen)
	}

	var header [frameHeaderLen]byte
	binary.BigEndian.PutUint16(header[0:2], uint16(frameHeaderLen+scratch.Len()))
	header[2] = byte(msg.Type())
	header[3] = 0
	binary.BigEndian.PutUint32(header[4:8], id)
	// header[8:16] is the second reserved field; left zero.

	if err := writeAll(w, header[:], retryDelay); err != nil {
		return err
	}
	return writeAll(w, scratch.Bytes(), retryDelay)
}
