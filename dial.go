// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"
)

// Dial opens a Transport to addr using the default transport (ZAP) unless
// WithTransport says otherwise. Middleware set with WithMiddleware wraps it.
func Dial(ctx context.Context, addr string, opts ...DialOption) (Transport, error) {
	o := newDialOptions(opts)

	dial, ok := lookupTransport(o.transport)
	if !ok {
		return nil, fmt.Errorf("unknown transport: %s", o.transport)
	}
	t, err := dial(ctx, addr, o)
	if err != nil {
		return nil, err
	}
	return Chain(o.middleware...)(t), nil
}

// DialConn dials addr and snapshots the server's method list.
func DialConn(ctx context.Context, addr string, opts ...DialOption) (*Connection, error) {
	t, err := Dial(ctx, addr, opts...)
	if err != nil {
		return nil, err
	}
	o := newDialOptions(opts)
	c, err := Connect(ctx, t, WithConnLogger(o.logger))
	if err != nil {
		t.Close()
		return nil, err
	}
	return c, nil
}
