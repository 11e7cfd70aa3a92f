// Copyright (c) 2025 The tchannel Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tchannel

import (
	"time"

	"github.com/kangkot/tchannel/messages"
	"go.uber.org/zap"
)

// Options configures a Connection. The zero value is not meaningful;
// construct one with defaultOptions and apply Option funcs.
type Options struct {
	Logger *zap.Logger

	// TraceGenerator mints trace/span ids for locally-initiated calls
	// that do not already carry one.
	TraceGenerator messages.TraceGenerator

	// RetryDelay controls how frame I/O reacts to ErrWouldBlock from a
	// non-blocking transport:
	//   - negative: nonblock, return ErrWouldBlock immediately
	//   - zero: yield (runtime.Gosched) and retry
	//   - positive: sleep for the duration and retry
	RetryDelay time.Duration

	// ReadLimit caps the maximum accepted frame body size in bytes.
	// Zero means no limit beyond the wire format's own 16-bit size
	// field (frame body <= 65519 bytes).
	ReadLimit int
}

var defaultOptions = Options{
	Logger:         zap.NewNop(),
	TraceGenerator: messages.NewTraceGenerator(),
	RetryDelay:     -1,
	ReadLimit:      0,
}

// Option mutates Options during Connection construction.
type Option func(*Options)

// WithLogger attaches a zap.Logger for connection lifecycle events. A
// nil logger is treated as zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.Logger = l
	}
}

// WithTraceGenerator overrides the default uuid-derived TraceGenerator.
func WithTraceGenerator(g messages.TraceGenerator) Option {
	return func(o *Options) { o.TraceGenerator = g }
}

// WithRetryDelay sets the retry/wait policy used when the underlying
// transport returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry) on
// ErrWouldBlock.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock forces non-blocking behavior (return ErrWouldBlock
// immediately).
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}

// WithReadLimit caps the maximum accepted frame body size.
func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}
