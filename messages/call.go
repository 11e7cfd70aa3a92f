// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package messages

import "github.com/kangkot/tchannel/rw"

var transportHeadersRW = rw.Headers(
	rw.Number(1),
	rw.LenPrefixedString(rw.Number(1), false),
	rw.LenPrefixedString(rw.Number(1), false),
)

// CallReq is a call request frame. Argument fragmentation and checksums
// belong to a layer above this package; Body carries whatever argument
// bytes followed the known header fields, opaque here.
type CallReq struct {
	Flags            uint8
	TTL              uint32
	Trace            TraceBlock
	Service          string
	TransportHeaders []rw.HeaderPair
	Body             []byte
}

func (c CallReq) Type() Type { return CallReqType }

func (c CallReq) Fields() map[string]any {
	return map[string]any{
		"flags":            uint64(c.Flags),
		"ttl":              uint64(c.TTL),
		"trace":            c.Trace,
		"service":          c.Service,
		"transportHeaders": c.TransportHeaders,
		"body":             c.Body,
	}
}

var callReqRW = rw.Instance(func(m map[string]any) any {
	return CallReq{
		Flags:            uint8(m["flags"].(uint64)),
		TTL:              uint32(m["ttl"].(uint64)),
		Trace:            m["trace"].(TraceBlock),
		Service:          m["service"].(string),
		TransportHeaders: m["transportHeaders"].([]rw.HeaderPair),
		Body:             m["body"].([]byte),
	}
}, rw.Pair{Key: "flags", RW: rw.Number(1)},
	rw.Pair{Key: "ttl", RW: rw.Number(4)},
	rw.Pair{Key: "trace", RW: traceBlockRW},
	rw.Pair{Key: "service", RW: rw.LenPrefixedString(rw.Number(1), false)},
	rw.Pair{Key: "transportHeaders", RW: transportHeadersRW},
	rw.Pair{Key: "body", RW: rw.Rest()},
)

// CallRes is a call response frame. It shares CallReq's flags/ttl/
// trace/transportHeaders tail but carries a response code in place of
// a service name (a response is never itself routed).
type CallRes struct {
	ResponseCode     uint8
	Flags            uint8
	TTL              uint32
	Trace            TraceBlock
	TransportHeaders []rw.HeaderPair
	Body             []byte
}

func (c CallRes) Type() Type { return CallResType }

func (c CallRes) Fields() map[string]any {
	return map[string]any{
		"responseCode":     uint64(c.ResponseCode),
		"flags":            uint64(c.Flags),
		"ttl":              uint64(c.TTL),
		"trace":            c.Trace,
		"transportHeaders": c.TransportHeaders,
		"body":             c.Body,
	}
}

var callResRW = rw.Instance(func(m map[string]any) any {
	return CallRes{
		ResponseCode:     uint8(m["responseCode"].(uint64)),
		Flags:            uint8(m["flags"].(uint64)),
		TTL:              uint32(m["ttl"].(uint64)),
		Trace:            m["trace"].(TraceBlock),
		TransportHeaders: m["transportHeaders"].([]rw.HeaderPair),
		Body:             m["body"].([]byte),
	}
}, rw.Pair{Key: "responseCode", RW: rw.Number(1)},
	rw.Pair{Key: "flags", RW: rw.Number(1)},
	rw.Pair{Key: "ttl", RW: rw.Number(4)},
	rw.Pair{Key: "trace", RW: traceBlockRW},
	rw.Pair{Key: "transportHeaders", RW: transportHeadersRW},
	rw.Pair{Key: "body", RW: rw.Rest()},
)

// Error is an ERROR frame: a response that could not produce a CallRes.
type Error struct {
	Code    uint8
	Trace   TraceBlock
	Message string
}

func (e Error) Type() Type { return ErrorType }

func (e Error) Fields() map[string]any {
	return map[string]any{
		"code":    uint64(e.Code),
		"trace":   e.Trace,
		"message": e.Message,
	}
}

var errorRW = rw.Instance(func(m map[string]any) any {
	return Error{
		Code:    uint8(m["code"].(uint64)),
		Trace:   m["trace"].(TraceBlock),
		Message: m["message"].(string),
	}
}, rw.Pair{Key: "code", RW: rw.Number(1)},
	rw.Pair{Key: "trace", RW: traceBlockRW},
	rw.Pair{Key: "message", RW: rw.LenPrefixedString(rw.Number(2), false)},
)
