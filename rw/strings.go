// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rw

import (
	"io"
	"unicode/utf8"

	"github.com/kangkot/tchannel/wire"
)

// lenPrefixedString writes a length (via lenRW) followed by that many
// bytes. When binary is false the payload is decoded as UTF-8 and
// delivered as a string; when true it is delivered as a raw []byte.
type lenPrefixedString struct {
	lenRW  ReadWriter
	binary bool
}

// LenPrefixedString returns a combinator for a string (or, if binary is
// true, a raw byte payload) prefixed by its length encoded with lenRW.
// Width equals lenRW.Width(): the prefix only, never the full payload.
func LenPrefixedString(lenRW ReadWriter, binary bool) ReadWriter {
	return lenPrefixedString{lenRW: lenRW, binary: binary}
}

func (s lenPrefixedString) Width() int { return s.lenRW.Width() }

func (s lenPrefixedString) Read(r io.Reader) (any, error) {
	lv, err := s.lenRW.Read(r)
	if err != nil {
		return nil, err
	}
	n, err := toUint64(lv)
	if err != nil {
		return nil, wire.NewReadError("len_prefixed_string: bad length: %w", err)
	}
	buf, err := wire.ReadFull(r, int(n))
	if err != nil {
		return nil, err
	}
	if s.binary {
		return buf, nil
	}
	if !utf8.Valid(buf) {
		return nil, wire.NewReadError("len_prefixed_string: invalid utf-8")
	}
	return string(buf), nil
}

func (s lenPrefixedString) Write(v any, w io.Writer) error {
	var payload []byte
	switch x := v.(type) {
	case nil:
		payload = nil
	case string:
		payload = []byte(x)
	case []byte:
		payload = x
	default:
		return wire.NewProtocolError("len_prefixed_string: value %T is not a string or []byte", v)
	}
	if err := s.lenRW.Write(uint64(len(payload)), w); err != nil {
		return err
	}
	return wire.WriteFull(w, payload)
}
