// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tchannel implements the core of the TChannel wire protocol: a
// framed, multiplexed request/response protocol over a byte-oriented
// transport.
//
// Layering:
//   - rw builds the declarative read/write combinator algebra every
//     wire shape in this repository is expressed with.
//   - messages builds the fixed message catalog (InitReq, InitRes,
//     CallReq, CallRes, Error, PingReq, PingRes) from that algebra.
//   - This package (frame.go, connection.go) frames those messages onto
//     a 16-byte length-prefixed header and drives the connection state
//     machine: id allocation, handshake, ping/pong, and the inbound
//     dispatch loop.
//   - transport supplies concrete byte-stream adapters (TCP, Unix,
//     WebSocket); config assembles handshake headers and Options from a
//     YAML file. Neither is required to use the core.
//
// Non-blocking transports may surface iox.ErrWouldBlock or iox.ErrMore
// (re-exported here) instead of failing a Read/Write outright; see
// Options.RetryDelay for how a cooperative-blocking caller rides over
// them.
package tchannel
