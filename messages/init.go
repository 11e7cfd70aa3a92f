// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package messages

import "github.com/kangkot/tchannel/rw"

var initHeadersRW = rw.Headers(
	rw.Number(2),
	rw.LenPrefixedString(rw.Number(2), false),
	rw.LenPrefixedString(rw.Number(2), false),
)

var initPairs = []rw.Pair{
	{Key: "version", RW: rw.Number(2)},
	{Key: "headers", RW: initHeadersRW},
}

// InitPayload is the shared body shape of InitReq and InitRes: a
// 16-bit version followed by advisory headers. Only host_port and
// process_name are mandatory; the connection engine, not this package,
// enforces that.
type InitPayload struct {
	Version uint16
	Headers []rw.HeaderPair
}

func (p InitPayload) Fields() map[string]any {
	return map[string]any{"version": uint64(p.Version), "headers": p.Headers}
}

func initPayloadFrom(m map[string]any) InitPayload {
	headers, _ := m["headers"].([]rw.HeaderPair)
	return InitPayload{Version: uint16(m["version"].(uint64)), Headers: headers}
}

// HeaderValue returns the value of the first pair matching key.
func HeaderValue(pairs []rw.HeaderPair, key string) (string, bool) {
	for _, p := range pairs {
		if p[0] == key {
			return p[1], true
		}
	}
	return "", false
}

// InitReq is the handshake offer a client sends to open a connection.
type InitReq struct{ InitPayload }

func (InitReq) Type() Type { return InitReqType }

// InitRes is the handshake reply a server sends back, reusing the
// request's message id.
type InitRes struct{ InitPayload }

func (InitRes) Type() Type { return InitResType }

var initReqRW = rw.Instance(func(m map[string]any) any {
	return InitReq{initPayloadFrom(m)}
}, initPairs...)

var initResRW = rw.Instance(func(m map[string]any) any {
	return InitRes{initPayloadFrom(m)}
}, initPairs...)

// NewInitReq builds an InitReq advertising this core's protocol version.
func NewInitReq(headers []rw.HeaderPair) InitReq {
	return InitReq{InitPayload{Version: ProtocolVersion, Headers: headers}}
}

// NewInitRes builds an InitRes advertising this core's protocol version.
func NewInitRes(headers []rw.HeaderPair) InitRes {
	return InitRes{InitPayload{Version: ProtocolVersion, Headers: headers}}
}
