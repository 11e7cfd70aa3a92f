// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wire provides the shared error taxonomy and low-level byte
// helpers used by the rw, messages, and connection layers.
//
// Three error kinds flow out of this repository:
//
//   - ReadError: bytes were unavailable or malformed during decode.
//   - ProtocolError: well-formed bytes violated a wire constraint.
//   - InvalidMessageError: a decoded message was structurally valid but
//     semantically wrong in context. Raised by the connection engine,
//     never by combinators.
//
// A fourth class of signal, iox.ErrWouldBlock and iox.ErrMore, is not an
// error at all: it is non-blocking control flow and is never wrapped by
// the types below.
package wire

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock means "no further progress without waiting". Re-exported so
// callers need not import code.hybscloud.com/iox directly.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrMore means "this completion is usable and more completions will follow".
var ErrMore = iox.ErrMore

// ErrInvalidArgument reports a nil stream or other invalid construction
// argument.
var ErrInvalidArgument = errors.New("tchannel: invalid argument")

// ReadError wraps a failure encountered while decoding bytes off the wire:
// a short read, a length prefix that overruns the stream, or a UTF-8
// decode failure.
type ReadError struct {
	Err error
}

func NewReadError(format string, args ...any) *ReadError {
	return &ReadError{Err: fmt.Errorf(format, args...)}
}

func (e *ReadError) Error() string { return fmt.Sprintf("tchannel: read: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// ProtocolError reports well-formed bytes that violate a protocol
// constraint: on write, a value out of a combinator's domain or a
// mismatched tuple arity; on frame decode, a size field smaller than
// the header, a body over the read limit, or trailing body bytes.
type ProtocolError struct {
	Err error
}

func NewProtocolError(format string, args ...any) *ProtocolError {
	return &ProtocolError{Err: fmt.Errorf(format, args...)}
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("tchannel: protocol: %v", e.Err) }
func (e *ProtocolError) Unwrap() error { return e.Err }

// InvalidMessageError reports a decoded message that is structurally
// valid but semantically wrong for the context it arrived in: the wrong
// type during a handshake, or a handshake missing a required header.
type InvalidMessageError struct {
	Err error
}

func NewInvalidMessageError(format string, args ...any) *InvalidMessageError {
	return &InvalidMessageError{Err: fmt.Errorf(format, args...)}
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("tchannel: invalid message: %v", e.Err)
}
func (e *InvalidMessageError) Unwrap() error { return e.Err }

// IsControlFlow reports whether err is one of the non-blocking control-flow
// signals that must be propagated unchanged rather than wrapped.
func IsControlFlow(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrMore)
}
