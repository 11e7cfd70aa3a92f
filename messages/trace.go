// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package messages

import (
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/kangkot/tchannel/rw"
)

// TraceBlock is the fixed 25-byte tracing quadruple carried by CallReq,
// CallRes, and Error frames in the TChannel wire format.
type TraceBlock struct {
	TraceID    uint64
	SpanID     uint64
	ParentID   uint64
	TraceFlags uint8
}

func (t TraceBlock) Fields() map[string]any {
	return map[string]any{
		"trace_id":   t.TraceID,
		"span_id":    t.SpanID,
		"parent_id":  t.ParentID,
		"traceflags": uint64(t.TraceFlags),
	}
}

var traceBlockRW = rw.Instance(func(m map[string]any) any {
	return TraceBlock{
		TraceID:    m["trace_id"].(uint64),
		SpanID:     m["span_id"].(uint64),
		ParentID:   m["parent_id"].(uint64),
		TraceFlags: uint8(m["traceflags"].(uint64)),
	}
}, rw.Pair{Key: "trace_id", RW: rw.Number(8)},
	rw.Pair{Key: "span_id", RW: rw.Number(8)},
	rw.Pair{Key: "parent_id", RW: rw.Number(8)},
	rw.Pair{Key: "traceflags", RW: rw.Number(1)},
)

// TraceGenerator mints fresh trace/span ids for locally-initiated calls
// that do not carry one already. The default implementation derives
// both halves from a single random v4 UUID so that independently
// started processes do not need a shared counter to avoid collisions.
type TraceGenerator interface {
	NewTrace() TraceBlock
	NewSpan(traceID uint64) TraceBlock
}

type uuidTraceGenerator struct{}

// NewTraceGenerator returns the default TraceGenerator.
func NewTraceGenerator() TraceGenerator { return uuidTraceGenerator{} }

func (uuidTraceGenerator) NewTrace() TraceBlock {
	id := uuid.New()
	traceID := binary.BigEndian.Uint64(id[0:8])
	spanID := binary.BigEndian.Uint64(id[8:16])
	return TraceBlock{TraceID: traceID, SpanID: spanID}
}

func (uuidTraceGenerator) NewSpan(traceID uint64) TraceBlock {
	id := uuid.New()
	spanID := binary.BigEndian.Uint64(id[8:16])
	return TraceBlock{TraceID: traceID, SpanID: spanID}
}
