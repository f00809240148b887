// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeCounter records Close calls on the innermost transport.
type closeCounter struct {
	TransportFunc
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next Transport) Transport {
			return wrap(next, func(ctx context.Context, batch []Request) ([]any, error) {
				order = append(order, name)
				return next.Execute(ctx, batch)
			})
		}
	}

	inner := &closeCounter{TransportFunc: func(context.Context, []Request) ([]any, error) {
		order = append(order, "transport")
		return []any{"ok"}, nil
	}}
	tr := Chain(tag("outer"), tag("inner"))(inner)

	res, err := tr.Execute(context.Background(), []Request{{Method: "x"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"ok"}, res)
	assert.Equal(t, []string{"outer", "inner", "transport"}, order)

	require.NoError(t, tr.Close())
	assert.Equal(t, 1, inner.closed)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	fail := errors.New("boom")
	tr := LoggingMiddleware(logger)(TransportFunc(func(_ context.Context, batch []Request) ([]any, error) {
		if batch[0].Method == "bad" {
			return nil, fail
		}
		return []any{1}, nil
	}))

	_, err := tr.Execute(context.Background(), []Request{{Method: "d.name"}})
	require.NoError(t, err)
	_, err = tr.Execute(context.Background(), []Request{{Method: "bad"}})
	assert.ErrorIs(t, err, fail)

	out := buf.String()
	assert.Contains(t, out, "rpc exchange")
	assert.Contains(t, out, "d.name")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "boom")
}

func TestRateLimitMiddlewareHonorsContext(t *testing.T) {
	calls := 0
	tr := RateLimitMiddleware(0.001, 1)(TransportFunc(func(context.Context, []Request) ([]any, error) {
		calls++
		return []any{nil}, nil
	}))

	_, err := tr.Execute(context.Background(), []Request{{Method: "x"}})
	require.NoError(t, err, "burst allows the first exchange")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = tr.Execute(ctx, []Request{{Method: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, calls)
}

func TestCircuitBreakerOpens(t *testing.T) {
	netErr := errors.New("connection refused")
	calls := 0
	tr := CircuitBreakerMiddleware("test", CircuitBreakerConfig{
		MaxFailures: 2,
		Timeout:     time.Minute,
	}, slog.Default())(TransportFunc(func(context.Context, []Request) ([]any, error) {
		calls++
		return nil, netErr
	}))

	for i := 0; i < 2; i++ {
		_, err := tr.Execute(context.Background(), []Request{{Method: "x"}})
		assert.ErrorIs(t, err, netErr)
	}

	_, err := tr.Execute(context.Background(), []Request{{Method: "x"}})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestCircuitBreakerIgnoresFaults(t *testing.T) {
	calls := 0
	tr := CircuitBreakerMiddleware("faults", CircuitBreakerConfig{MaxFailures: 1}, slog.Default())(
		TransportFunc(func(context.Context, []Request) ([]any, error) {
			calls++
			return nil, &FaultError{Code: FaultMethodNotFound, Message: "nope"}
		}))

	for i := 0; i < 3; i++ {
		_, err := tr.Execute(context.Background(), []Request{{Method: "x"}})
		var fault *FaultError
		assert.ErrorAs(t, err, &fault)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, 3, calls)
}
