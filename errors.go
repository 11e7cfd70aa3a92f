// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tchannel

import "github.com/kangkot/tchannel/wire"

// These are provided as package-level aliases so callers driving the
// connection engine don't need to import the wire package directly for
// the error taxonomy.
type (
	ReadError           = wire.ReadError
	ProtocolError       = wire.ProtocolError
	InvalidMessageError = wire.InvalidMessageError
)

var (
	// ErrWouldBlock means "no further progress without waiting". An
	// expected, non-failure control-flow signal for non-blocking I/O.
	ErrWouldBlock = wire.ErrWouldBlock

	// ErrMore means "this completion is usable and more completions
	// will follow".
	ErrMore = wire.ErrMore

	// ErrInvalidArgument reports a nil stream or other invalid
	// construction argument.
	ErrInvalidArgument = wire.ErrInvalidArgument
)
