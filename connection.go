// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tchannel

import (
	"bytes"
	"io"
	"sync"

	"github.com/kangkot/tchannel/messages"
	"github.com/kangkot/tchannel/rw"
	"github.com/kangkot/tchannel/wire"
	"go.uber.org/zap"
)

// Phase is a connection's position in the handshake state machine:
// Unshaken -> Handshaking -> Ready.
type Phase uint8

const (
	Unshaken Phase = iota
	Handshaking
	Ready
)

func (p Phase) String() string {
	switch p {
	case Unshaken:
		return "unshaken"
	case Handshaking:
		return "handshaking"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Connection drives one TChannel byte stream: id allocation, the
// handshake sequence, ping/pong, and the inbound dispatch loop. A
// Connection is single-threaded: the caller must not interleave calls
// to it from more than one goroutine.
type Connection struct {
	stream io.ReadWriter
	opts   Options
	frames *FrameStream

	mu                sync.Mutex
	nextID            uint32
	phase             Phase
	localHeaders      []rw.HeaderPair
	remoteHost        string
	remoteProcessName string
	requestedVersion  uint16

	scratch bytes.Buffer
}

// NewConnection wraps stream - any io.ReadWriter whose Read returns
// fewer than the requested bytes only at EOF, including the transport
// adapters in the transport package - as a Connection in the Unshaken
// phase.
func NewConnection(stream io.ReadWriter, opts ...Option) *Connection {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	o.Logger.Debug("making a new connection")
	return &Connection{
		stream: stream,
		opts:   o,
		frames: newFrameStream(stream, o.RetryDelay, o.ReadLimit),
	}
}

// Phase reports the connection's current handshake state.
func (c *Connection) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// RemoteHost returns the peer's advertised host_port, populated once the
// handshake completes.
func (c *Connection) RemoteHost() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteHost
}

// RemoteProcessName returns the peer's advertised process_name,
// populated once the handshake completes.
func (c *Connection) RemoteProcessName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteProcessName
}

// RequestedVersion returns the protocol version the peer advertised
// during the handshake. Mismatches against messages.ProtocolVersion are
// not reconciled; the value is stored for inspection only.
func (c *Connection) RequestedVersion() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestedVersion
}

// NextMessageID pre-increments the connection's id counter and returns
// the new value; the first assigned id is 1.
func (c *Connection) NextMessageID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

// FrameAndWrite serializes msg as one frame, allocating a fresh message
// id when none is supplied, or reusing explicitID[0] for a response. A
// ProtocolError raised while encoding is re-raised as an
// InvalidMessageError. Emitting a call frame before the handshake has
// completed is an InvalidMessageError; handshake and ping frames are
// exempt.
func (c *Connection) FrameAndWrite(msg messages.Message, explicitID ...uint32) (uint32, error) {
	var id uint32
	if len(explicitID) > 0 {
		id = explicitID[0]
	} else {
		id = c.NextMessageID()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Ready {
		switch msg.Type() {
		case messages.InitReqType, messages.InitResType, messages.PingReqType, messages.PingResType:
		default:
			return 0, wire.NewInvalidMessageError(
				"cannot emit %s frame while connection phase is %s", msg.Type(), c.phase)
		}
	}
	if err := encodeFrame(c.stream, id, msg, &c.scratch, c.opts.RetryDelay); err != nil {
		if _, ok := err.(*wire.ProtocolError); ok {
			return 0, wire.NewInvalidMessageError("encoding %s: %w", msg.Type(), err)
		}
		return 0, err
	}
	c.opts.Logger.Debug("wrote frame",
		zap.Uint32("id", id), zap.Stringer("type", msg.Type()))
	return id, nil
}

// readFrame pulls exactly one frame context from the connection's
// FrameStream, rejecting a body larger than Options.ReadLimit when one
// is configured.
func (c *Connection) readFrame() (Context, error) {
	return c.frames.Next()
}

// Frames exposes the connection's inbound FrameStream directly, for
// callers driving a request/response exchange by hand instead of
// through HandleCalls (e.g. a client awaiting a single CallRes).
func (c *Connection) Frames() *FrameStream {
	return c.frames
}

// Ping emits a PingReq and returns its freshly allocated id.
func (c *Connection) Ping() (uint32, error) {
	return c.FrameAndWrite(messages.PingReq{})
}

// Pong replies to a PingReq with a PingRes reusing the request's id.
func (c *Connection) Pong(id uint32) error {
	_, err := c.FrameAndWrite(messages.PingRes{}, id)
	return err
}

// InitiateHandshake is the client side of the handshake: it emits
// InitReq carrying the local protocol version and the supplied headers,
// and transitions the connection to Handshaking.
func (c *Connection) InitiateHandshake(headers []rw.HeaderPair) error {
	c.mu.Lock()
	c.localHeaders = headers
	c.mu.Unlock()

	if _, err := c.FrameAndWrite(messages.NewInitReq(headers)); err != nil {
		return err
	}
	c.mu.Lock()
	c.phase = Handshaking
	c.mu.Unlock()
	c.opts.Logger.Debug("initiated handshake")
	return nil
}

// AwaitHandshakeReply is the client side: it reads one frame, rejects
// anything but InitRes, records the peer's attributes, and transitions
// to Ready.
func (c *Connection) AwaitHandshakeReply() error {
	ctx, err := c.readFrame()
	if err != nil {
		return err
	}
	res, ok := ctx.Message.(messages.InitRes)
	if !ok {
		return wire.NewInvalidMessageError("expected InitRes during handshake, got %s", ctx.Message.Type())
	}
	if err := c.recordPeerAttributes(res.InitPayload); err != nil {
		return err
	}
	c.mu.Lock()
	c.phase = Ready
	c.mu.Unlock()
	c.opts.Logger.Debug("handshake ready",
		zap.String("remote_host", c.RemoteHost()),
		zap.String("remote_process_name", c.RemoteProcessName()))
	return nil
}

// AwaitHandshake is the server side: it reads one frame, fails unless
// it is InitReq, records the peer's attributes, replies with InitRes
// reusing the request's id, and transitions to Ready.
func (c *Connection) AwaitHandshake(headers []rw.HeaderPair) error {
	c.mu.Lock()
	c.localHeaders = headers
	c.phase = Handshaking
	c.mu.Unlock()

	ctx, err := c.readFrame()
	if err != nil {
		return err
	}
	req, ok := ctx.Message.(messages.InitReq)
	if !ok {
		return wire.NewInvalidMessageError("expected InitReq during handshake, got %s", ctx.Message.Type())
	}
	if err := c.recordPeerAttributes(req.InitPayload); err != nil {
		return err
	}
	if _, err := c.FrameAndWrite(messages.NewInitRes(headers), ctx.ID); err != nil {
		return err
	}
	c.mu.Lock()
	c.phase = Ready
	c.mu.Unlock()
	c.opts.Logger.Debug("handshake ready",
		zap.String("remote_host", c.RemoteHost()),
		zap.String("remote_process_name", c.RemoteProcessName()))
	return nil
}

// recordPeerAttributes validates the handshake's mandatory headers and
// stores the peer's attributes. A missing host_port or process_name is
// an InvalidMessageError.
func (c *Connection) recordPeerAttributes(p messages.InitPayload) error {
	host, ok := messages.HeaderValue(p.Headers, messages.HostPort)
	if !ok {
		return wire.NewInvalidMessageError("handshake missing required header %q", messages.HostPort)
	}
	process, ok := messages.HeaderValue(p.Headers, messages.ProcessName)
	if !ok {
		return wire.NewInvalidMessageError("handshake missing required header %q", messages.ProcessName)
	}
	c.mu.Lock()
	c.remoteHost = host
	c.remoteProcessName = process
	c.requestedVersion = p.Version
	c.mu.Unlock()
	return nil
}

// Call assembles a CallReq and writes it, minting a trace block via the
// connection's TraceGenerator when trace is omitted.
func (c *Connection) Call(service string, transportHeaders []rw.HeaderPair, body []byte, trace ...messages.TraceBlock) (uint32, error) {
	var tb messages.TraceBlock
	if len(trace) > 0 {
		tb = trace[0]
	} else {
		tb = c.opts.TraceGenerator.NewTrace()
	}
	req := messages.CallReq{
		TTL:              0,
		Trace:            tb,
		Service:          service,
		TransportHeaders: transportHeaders,
		Body:             body,
	}
	return c.FrameAndWrite(req)
}

// Handler is invoked by HandleCalls once per inbound frame other than
// PingReq/PingRes.
type Handler func(ctx Context, conn *Connection) error

// HandleCalls pumps frames from the inbound stream until the stream
// reaches a clean EOF. A PingReq is answered with a PingRes reusing its
// id and a PingRes is dropped; neither reaches handler, which is invoked
// for every other frame. Any frame other than PingReq/PingRes received
// while the connection is not Ready, handshake frames included, fails
// the loop.
func (c *Connection) HandleCalls(handler Handler) error {
	for {
		ctx, err := c.readFrame()
		if err != nil {
			if err == io.EOF {
				c.opts.Logger.Debug("inbound stream closed")
				return nil
			}
			c.opts.Logger.Error("frame decode failed", zap.Error(err))
			return err
		}

		if c.Phase() != Ready {
			switch ctx.Message.Type() {
			case messages.PingReqType, messages.PingResType:
				// pings are permitted in any phase
			default:
				return wire.NewInvalidMessageError(
					"received %s frame while connection phase is %s", ctx.Message.Type(), c.Phase())
			}
		}

		switch ctx.Message.(type) {
		case messages.PingReq:
			if err := c.Pong(ctx.ID); err != nil {
				return err
			}
			continue
		case messages.PingRes:
			continue
		}

		if err := handler(ctx, c); err != nil {
			c.opts.Logger.Error("handler failed", zap.Uint32("id", ctx.ID), zap.Error(err))
			return err
		}
	}
}

// Close releases the underlying transport if it implements io.Closer.
func (c *Connection) Close() error {
	if closer, ok := c.stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
