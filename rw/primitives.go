// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rw

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/kangkot/tchannel/wire"
)

// none is the unit combinator: it reads nothing and yields a nil
// sentinel; it writes nothing regardless of the value passed in.
type none struct{}

// None returns the unit combinator, used for empty message bodies such
// as PingReq/PingRes.
func None() ReadWriter { return none{} }

func (none) Read(io.Reader) (any, error) { return nil, nil }
func (none) Write(any, io.Writer) error  { return nil }
func (none) Width() int                  { return 0 }

// number is a big-endian unsigned integer of a fixed byte width.
type number struct {
	width int
}

// Number returns a combinator for a big-endian unsigned integer of width
// bytes. width must be one of 1, 2, 4, or 8; any other value panics at
// construction time since the wire format has no representation for it.
func Number(width int) ReadWriter {
	switch width {
	case 1, 2, 4, 8:
	default:
		panic("rw: Number width must be one of 1, 2, 4, 8")
	}
	return number{width: width}
}

func (n number) Width() int { return n.width }

func (n number) Read(r io.Reader) (any, error) {
	buf, err := wire.ReadFull(r, n.width)
	if err != nil {
		return nil, err
	}
	switch n.width {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf)), nil
	case 8:
		return binary.BigEndian.Uint64(buf), nil
	}
	panic("unreachable")
}

func (n number) Write(v any, w io.Writer) error {
	u, err := toUint64(v)
	if err != nil {
		return wire.NewProtocolError("number: %w", err)
	}
	max := uint64(math.MaxUint64)
	if n.width < 8 {
		max = uint64(1)<<(8*uint(n.width)) - 1
	}
	if u > max {
		return wire.NewProtocolError("number: value %d overflows %d-byte field", u, n.width)
	}
	buf := make([]byte, n.width)
	switch n.width {
	case 1:
		buf[0] = byte(u)
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(u))
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(u))
	case 8:
		binary.BigEndian.PutUint64(buf, u)
	}
	return wire.WriteFull(w, buf)
}

// toUint64 accepts the handful of integer-ish types callers reasonably
// pass to Write (uint64 from a prior Read, or a plain int/uint literal
// written by hand) and normalizes them.
func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case uint64:
		return x, nil
	case uint32:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case int:
		if x < 0 {
			return 0, wire.NewProtocolError("negative value %d", x)
		}
		return uint64(x), nil
	case int64:
		if x < 0 {
			return 0, wire.NewProtocolError("negative value %d", x)
		}
		return uint64(x), nil
	default:
		return 0, wire.NewProtocolError("value %T is not an integer", v)
	}
}

// constant delegates Width and Write to inner, but Write always emits
// inner.Write(value, ...) ignoring the caller's argument, and Read
// discards the decoded result and returns value. Used for reserved or
// padding fields that must round-trip to a known constant, such as the
// frame header's two reserved fields.
type constant struct {
	inner ReadWriter
	value any
}

func Constant(inner ReadWriter, value any) ReadWriter {
	return constant{inner: inner, value: value}
}

func (c constant) Width() int { return c.inner.Width() }

func (c constant) Read(r io.Reader) (any, error) {
	if _, err := c.inner.Read(r); err != nil {
		return nil, err
	}
	return c.value, nil
}

func (c constant) Write(_ any, w io.Writer) error {
	return c.inner.Write(c.value, w)
}
