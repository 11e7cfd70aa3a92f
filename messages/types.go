// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package messages defines the fixed catalog of TChannel message
// variants: their type tags, their wire shapes expressed as rw
// combinators, and the dispatch table the frame codec uses to decode a
// frame body once it knows the header's type tag.
package messages

import "github.com/kangkot/tchannel/rw"

// Type is a TChannel frame's type tag. Exact numeric assignments match
// the original TChannel wire protocol.
type Type uint8

const (
	InitReqType Type = 0x01
	InitResType Type = 0x02
	CallReqType Type = 0x03
	CallResType Type = 0x13
	ErrorType   Type = 0xc0
	PingReqType Type = 0xd0
	PingResType Type = 0xd1
)

func (t Type) String() string {
	switch t {
	case InitReqType:
		return "InitReq"
	case InitResType:
		return "InitRes"
	case CallReqType:
		return "CallReq"
	case CallResType:
		return "CallRes"
	case ErrorType:
		return "Error"
	case PingReqType:
		return "PingReq"
	case PingResType:
		return "PingRes"
	default:
		return "Unknown"
	}
}

// Message is implemented by every decoded variant.
type Message interface {
	Type() Type
	Fields() map[string]any
}

// ProtocolVersion is the protocol version this core advertises and
// expects during the handshake. Version mismatches are not reconciled;
// the peer's value is only recorded.
const ProtocolVersion = 2

// Mandatory handshake header names.
const (
	HostPort    = "host_port"
	ProcessName = "process_name"
)

// Catalog maps each type tag to the combinator that decodes/encodes its
// body. The frame codec builds a rw.Switch over this table keyed by the
// header's type byte.
var Catalog = map[Type]rw.ReadWriter{
	InitReqType: initReqRW,
	InitResType: initResRW,
	CallReqType: callReqRW,
	CallResType: callResRW,
	ErrorType:   errorRW,
	PingReqType: pingReqRW,
	PingResType: pingResRW,
}
