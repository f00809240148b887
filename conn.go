// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"
	"log/slog"
)

const listMethods = "system.listMethods"

// Connection binds a Transport to the method set of the server behind it.
type Connection struct {
	transport Transport
	methods   MethodSet
	logger    *slog.Logger
}

var _ Conn = (*Connection)(nil)

// ConnOption configures a Connection.
type ConnOption func(*Connection)

// WithConnLogger sets the connection logger.
func WithConnLogger(l *slog.Logger) ConnOption {
	return func(c *Connection) { c.logger = l }
}

// NewConn wraps t with a known method set.
func NewConn(t Transport, methods MethodSet, opts ...ConnOption) *Connection {
	c := &Connection{
		transport: t,
		methods:   methods,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect asks the server for its method list once and keeps the snapshot.
func Connect(ctx context.Context, t Transport, opts ...ConnOption) (*Connection, error) {
	res, err := t.Execute(ctx, []Request{{Method: listMethods, Params: []any{}}})
	if err != nil {
		return nil, transportErr(listMethods, err)
	}
	if len(res) != 1 {
		return nil, transportErr(listMethods, fmt.Errorf("%w: %d results for 1 call", ErrMalformedResult, len(res)))
	}
	names, err := ToStrings(res[0])
	if err != nil {
		return nil, transportErr(listMethods, err)
	}

	c := NewConn(t, NewMethodSet(names.([]string)...), opts...)
	c.logger.Debug("connected", "methods", len(c.methods))
	return c, nil
}

// AvailableMethods returns the method snapshot.
func (c *Connection) AvailableMethods() MethodSet { return c.methods }

// Execute sends batch over the transport.
func (c *Connection) Execute(ctx context.Context, batch []Request) ([]any, error) {
	return c.transport.Execute(ctx, batch)
}

// Close closes the transport.
func (c *Connection) Close() error {
	return c.transport.Close()
}
