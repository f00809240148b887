// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Transport executes a batch of resolved requests in one exchange and
// returns one raw result per request, in order.
type Transport interface {
	io.Closer
	Execute(ctx context.Context, batch []Request) ([]any, error)
}

// Conn is what callers need from a live server: the method set it supports
// and a way to run a batch.
type Conn interface {
	AvailableMethods() MethodSet
	Execute(ctx context.Context, batch []Request) ([]any, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, batch []Request) ([]any, error)

func (f TransportFunc) Execute(ctx context.Context, batch []Request) ([]any, error) {
	return f(ctx, batch)
}

func (TransportFunc) Close() error { return nil }

// DialOption configures client connections
type DialOption func(*dialOptions)

type dialOptions struct {
	codec      Codec
	transport  string // "zap", "json", "xml", "grpc"
	logger     *slog.Logger
	httpClient *http.Client
	timeout    time.Duration
	options    []Option
	middleware []Middleware
}

func newDialOptions(opts []DialOption) *dialOptions {
	o := &dialOptions{
		codec:     defaultCodec,
		transport: DefaultTransport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCodec sets a custom codec
func WithCodec(c Codec) DialOption {
	return func(o *dialOptions) { o.codec = c }
}

// WithTransport explicitly sets the transport type
func WithTransport(t string) DialOption {
	return func(o *dialOptions) { o.transport = t }
}

// WithLogger sets the logger used by the transport and its middleware.
func WithLogger(l *slog.Logger) DialOption {
	return func(o *dialOptions) { o.logger = l }
}

// WithHTTPClient sets the client used by the HTTP based transports.
func WithHTTPClient(c *http.Client) DialOption {
	return func(o *dialOptions) { o.httpClient = c }
}

// WithTimeout bounds every exchange. Zero leaves the caller's context alone.
func WithTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.timeout = d }
}

// withTimeout applies d to ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// WithRequestOptions sets headers and query parameters for HTTP transports.
func WithRequestOptions(opts ...Option) DialOption {
	return func(o *dialOptions) { o.options = append(o.options, opts...) }
}

// WithMiddleware wraps the dialed transport, outermost first.
func WithMiddleware(m ...Middleware) DialOption {
	return func(o *dialOptions) { o.middleware = append(o.middleware, m...) }
}
