// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Middleware decorates a Transport.
type Middleware func(next Transport) Transport

// Chain composes middlewares; the first one is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Transport) Transport {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// wrapped overrides Execute and keeps the inner Close.
type wrapped struct {
	Transport
	exec TransportFunc
}

func (w *wrapped) Execute(ctx context.Context, batch []Request) ([]any, error) {
	return w.exec(ctx, batch)
}

func wrap(next Transport, exec TransportFunc) Transport {
	return &wrapped{Transport: next, exec: exec}
}

// LoggingMiddleware logs every exchange at debug level and failures at warn.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Transport) Transport {
		return wrap(next, func(ctx context.Context, batch []Request) ([]any, error) {
			start := time.Now()
			res, err := next.Execute(ctx, batch)
			duration := time.Since(start)
			if err != nil {
				logger.Warn("rpc exchange failed",
					"methods", methodNames(batch),
					"duration", duration,
					"err", err,
				)
				return nil, err
			}
			logger.Debug("rpc exchange", "methods", methodNames(batch), "duration", duration)
			return res, nil
		})
	}
}

// RateLimitMiddleware holds each exchange until a token is available,
// token bucket of r per second with the given burst.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next Transport) Transport {
		return wrap(next, func(ctx context.Context, batch []Request) ([]any, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return next.Execute(ctx, batch)
		})
	}
}

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32 `yaml:"max_failures"`
	// Timeout is how long the circuit stays open before transitioning to half-open.
	Timeout time.Duration `yaml:"timeout"`
	// Interval is the cyclic period of the closed state for clearing failure counts.
	Interval time.Duration `yaml:"interval"`
}

// ErrCircuitOpen is returned while the breaker rejects exchanges.
var ErrCircuitOpen = errors.New("rtrpc: circuit open")

// CircuitBreakerMiddleware fails exchanges fast once the server has failed
// MaxFailures times in a row. Faults returned by the server count as
// successes: the server answered.
func CircuitBreakerMiddleware(name string, cfg CircuitBreakerConfig, logger *slog.Logger) Middleware {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[[]any](gobreaker.Settings{
		Name:        "rtrpc:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			var f *FaultError
			return err == nil || errors.As(err, &f)
		},
	})

	return func(next Transport) Transport {
		return wrap(next, func(ctx context.Context, batch []Request) ([]any, error) {
			res, err := cb.Execute(func() ([]any, error) {
				return next.Execute(ctx, batch)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
			}
			return res, err
		})
	}
}
