// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Caller queues calls and runs them in a single round-trip. A Caller is
// single-use.
type Caller struct {
	conn     Conn
	calls    []*Call
	executed bool
	logger   *slog.Logger
}

// CallerOption configures a Caller.
type CallerOption func(*Caller)

// WithCallerLogger sets the logger for the round-trip.
func WithCallerLogger(l *slog.Logger) CallerOption {
	return func(c *Caller) { c.logger = l }
}

// NewCaller creates an empty Caller bound to conn.
func NewCaller(conn Conn, opts ...CallerOption) *Caller {
	c := &Caller{
		conn:   conn,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add queues call. Adding to an executed Caller panics.
func (c *Caller) Add(call *Call) *Caller {
	if c.executed {
		panic("rtrpc: Add on executed Caller")
	}
	c.calls = append(c.calls, call)
	return c
}

// AddMethod queues a call of m with args.
func (c *Caller) AddMethod(m *Method, args ...any) *Caller {
	return c.Add(NewCall(m, args...))
}

// Len returns the number of queued calls.
func (c *Caller) Len() int { return len(c.calls) }

// Call resolves every queued call, sends them in one exchange and returns
// the post-processed results in queue order.
func (c *Caller) Call(ctx context.Context) ([]any, error) {
	if c.executed {
		return nil, ErrCallerUsed
	}
	c.executed = true
	if len(c.calls) == 0 {
		return []any{}, nil
	}

	available := c.conn.AvailableMethods()
	batch := make([]Request, len(c.calls))
	for i, call := range c.calls {
		req, err := call.Resolve(available)
		if err != nil {
			return nil, err
		}
		batch[i] = req
	}

	ctx, span := startSpan(ctx, "rtrpc.call",
		attribute.Int("rpc.calls", len(batch)),
		attribute.StringSlice("rpc.methods", methodNames(batch)),
	)
	results, err := c.exchange(ctx, batch)
	endSpan(span, err)
	return results, err
}

func (c *Caller) exchange(ctx context.Context, batch []Request) ([]any, error) {
	start := time.Now()
	raw, err := c.conn.Execute(ctx, batch)
	if err != nil {
		c.logger.Debug("rpc call failed", "calls", len(batch), "duration", time.Since(start), "err", err)
		return nil, transportErr(batch[0].Method, err)
	}
	if len(raw) != len(batch) {
		return nil, transportErr(batch[0].Method, fmt.Errorf("%w: %d results for %d calls", ErrMalformedResult, len(raw), len(batch)))
	}
	c.logger.Debug("rpc call", "calls", len(batch), "method", batch[0].Method, "duration", time.Since(start))

	results := make([]any, len(raw))
	for i, r := range raw {
		v, err := c.calls[i].method.PostProcess(r)
		if err != nil {
			return nil, transportErr(batch[i].Method, err)
		}
		results[i] = v
	}
	return results, nil
}
