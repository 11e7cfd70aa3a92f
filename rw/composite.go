// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rw

import (
	"io"
	"sort"

	"github.com/kangkot/tchannel/wire"
)

// chain sequences a fixed list of children. Read yields an ordered
// []any of their decoded values; Write accepts the same shape.
type chain struct {
	children []ReadWriter
}

// Chain returns a combinator that sequences children in order. Width is
// the sum of the children's widths.
func Chain(children ...ReadWriter) ReadWriter {
	return chain{children: children}
}

func (c chain) Width() int {
	total := 0
	for _, child := range c.children {
		total += child.Width()
	}
	return total
}

func (c chain) Read(r io.Reader) (any, error) {
	out := make([]any, len(c.children))
	for i, child := range c.children {
		v, err := child.Read(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c chain) Write(v any, w io.Writer) error {
	values, ok := v.([]any)
	if !ok {
		return wire.NewProtocolError("chain: value %T is not []any", v)
	}
	if len(values) != len(c.children) {
		return wire.NewProtocolError("chain: got %d values, want %d", len(values), len(c.children))
	}
	for i, child := range c.children {
		if err := child.Write(values[i], w); err != nil {
			return err
		}
	}
	return nil
}

// Pair names one field of a Dictionary or Instance. Key may be the Skip
// sentinel, in which case the field is read-and-discarded and written
// from the child's own zero value.
type Pair struct {
	Key any
	RW  ReadWriter
}

// fieldZero returns the "natural zero" a combinator writes when a
// Dictionary/Instance field is absent from the input map or marked Skip:
// 0 for numbers, "" for strings, nil for none, a slice holding each
// child's zero for chains, and nil for anything else (a nested
// Dictionary/Instance writes nil as all-zero fields).
func fieldZero(rw ReadWriter) any {
	switch x := rw.(type) {
	case number:
		return uint64(0)
	case lenPrefixedString:
		return ""
	case none:
		return nil
	case chain:
		zeros := make([]any, len(x.children))
		for i, child := range x.children {
			zeros[i] = fieldZero(child)
		}
		return zeros
	default:
		return nil
	}
}

type dictionary struct {
	pairs []Pair
}

// Dictionary reads a record with named keys into a map[string]any, and
// writes a map[string]any back onto the wire. Missing keys default to
// the child combinator's natural zero value. Width is the sum of the
// pairs' widths.
func Dictionary(pairs ...Pair) ReadWriter {
	return dictionary{pairs: pairs}
}

func (d dictionary) Width() int {
	total := 0
	for _, p := range d.pairs {
		total += p.RW.Width()
	}
	return total
}

func (d dictionary) Read(r io.Reader) (any, error) {
	out := make(map[string]any, len(d.pairs))
	for _, p := range d.pairs {
		v, err := p.RW.Read(r)
		if err != nil {
			return nil, err
		}
		if isSkip(p.Key) {
			continue
		}
		key, _ := p.Key.(string)
		out[key] = v
	}
	return out, nil
}

func (d dictionary) Write(v any, w io.Writer) error {
	m, err := asFieldMap(v)
	if err != nil {
		return wire.NewProtocolError("dictionary: %w", err)
	}
	for _, p := range d.pairs {
		val := fieldZero(p.RW)
		if !isSkip(p.Key) {
			key, _ := p.Key.(string)
			if existing, ok := m[key]; ok {
				val = existing
			}
		}
		if err := p.RW.Write(val, w); err != nil {
			return err
		}
	}
	return nil
}

// asFieldMap accepts either a plain map[string]any or a value exposing
// its own fields via Fields() map[string]any, the hook message variant
// types use so Dictionary/Instance can serialize a typed struct without
// reflection.
func asFieldMap(v any) (map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return x, nil
	case interface{ Fields() map[string]any }:
		return x.Fields(), nil
	default:
		return nil, wire.NewProtocolError("value %T has no field map", v)
	}
}

type instance struct {
	dict        dictionary
	constructor func(map[string]any) any
}

// Instance behaves like Dictionary, except Read passes the decoded
// field map to constructor to build a typed value. Write accepts either
// a map[string]any or a value implementing Fields() map[string]any.
func Instance(constructor func(map[string]any) any, pairs ...Pair) ReadWriter {
	return instance{dict: dictionary{pairs: pairs}, constructor: constructor}
}

func (i instance) Width() int { return i.dict.Width() }

func (i instance) Read(r io.Reader) (any, error) {
	v, err := i.dict.Read(r)
	if err != nil {
		return nil, err
	}
	m, _ := v.(map[string]any)
	return i.constructor(m), nil
}

func (i instance) Write(v any, w io.Writer) error {
	return i.dict.Write(v, w)
}

// HeaderPair is one decoded (or to-be-written) header entry.
type HeaderPair [2]string

type headers struct {
	lenRW   ReadWriter
	keyRW   ReadWriter
	valueRW ReadWriter
}

// Headers reads lenRW-count (keyRW, valueRW) pairs into a []HeaderPair,
// preserving duplicates. Write accepts either []HeaderPair or
// map[string]string; map entries are sorted by key so the wire encoding
// does not depend on Go's randomized map iteration order. Width is
// lenRW.Width(): the count prefix only.
func Headers(lenRW, keyRW, valueRW ReadWriter) ReadWriter {
	return headers{lenRW: lenRW, keyRW: keyRW, valueRW: valueRW}
}

func (h headers) Width() int { return h.lenRW.Width() }

func (h headers) Read(r io.Reader) (any, error) {
	lv, err := h.lenRW.Read(r)
	if err != nil {
		return nil, err
	}
	n, err := toUint64(lv)
	if err != nil {
		return nil, wire.NewReadError("headers: bad count: %w", err)
	}
	out := make([]HeaderPair, 0, n)
	for i := uint64(0); i < n; i++ {
		kv, err := h.keyRW.Read(r)
		if err != nil {
			return nil, err
		}
		vv, err := h.valueRW.Read(r)
		if err != nil {
			return nil, err
		}
		key, _ := kv.(string)
		val, _ := vv.(string)
		out = append(out, HeaderPair{key, val})
	}
	return out, nil
}

func (h headers) Write(v any, w io.Writer) error {
	pairs, err := toHeaderPairs(v)
	if err != nil {
		return wire.NewProtocolError("headers: %w", err)
	}
	if err := h.lenRW.Write(uint64(len(pairs)), w); err != nil {
		return err
	}
	for _, p := range pairs {
		if err := h.keyRW.Write(p[0], w); err != nil {
			return err
		}
		if err := h.valueRW.Write(p[1], w); err != nil {
			return err
		}
	}
	return nil
}

func toHeaderPairs(v any) ([]HeaderPair, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []HeaderPair:
		return x, nil
	case map[string]string:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]HeaderPair, len(keys))
		for i, k := range keys {
			out[i] = HeaderPair{k, x[k]}
		}
		return out, nil
	default:
		return nil, wire.NewProtocolError("value %T is not []HeaderPair or map[string]string", v)
	}
}

// TagValue is the (tag, payload) pair a Switch combinator reads or
// writes.
type TagValue struct {
	Tag     uint64
	Payload any
}

type switchRW struct {
	tagRW ReadWriter
	cases map[uint64]ReadWriter
}

// Switch reads tagRW, then dispatches to cases[tag] to decode the
// payload, returning a TagValue. An unknown tag reads no further bytes
// and yields TagValue{Tag: tag, Payload: nil}; Write writes the tag
// and, only for a known tag, the payload. The read/write asymmetry on
// unknown tags is deliberate; Read never guesses at an unknown
// payload's length, while Write trusts the caller to have nothing to
// say for a tag it has no case for. Width is tagRW.Width().
func Switch(tagRW ReadWriter, cases map[uint64]ReadWriter) ReadWriter {
	return switchRW{tagRW: tagRW, cases: cases}
}

func (s switchRW) Width() int { return s.tagRW.Width() }

func (s switchRW) Read(r io.Reader) (any, error) {
	tv, err := s.tagRW.Read(r)
	if err != nil {
		return nil, err
	}
	tag, err := toUint64(tv)
	if err != nil {
		return nil, wire.NewReadError("switch: bad tag: %w", err)
	}
	caseRW, ok := s.cases[tag]
	if !ok {
		return TagValue{Tag: tag}, nil
	}
	payload, err := caseRW.Read(r)
	if err != nil {
		return nil, err
	}
	return TagValue{Tag: tag, Payload: payload}, nil
}

func (s switchRW) Write(v any, w io.Writer) error {
	tv, ok := v.(TagValue)
	if !ok {
		return wire.NewProtocolError("switch: value %T is not a TagValue", v)
	}
	if err := s.tagRW.Write(tv.Tag, w); err != nil {
		return err
	}
	if caseRW, ok := s.cases[tv.Tag]; ok {
		return caseRW.Write(tv.Payload, w)
	}
	return nil
}

// Delegating forwards Read/Write/Width to a fixed inner combinator
// supplied at construction, so a named type can embed it to carry a
// wire schema without reshaping its own fields. The message variants in
// the messages package do not embed it; their combinators are looked up
// through messages.Catalog.
type Delegating struct {
	RW ReadWriter
}

func (d Delegating) Read(r io.Reader) (any, error)  { return d.RW.Read(r) }
func (d Delegating) Write(v any, w io.Writer) error { return d.RW.Write(v, w) }
func (d Delegating) Width() int                     { return d.RW.Width() }
