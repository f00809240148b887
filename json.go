// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/rpc/v2/json2"
)

const (
	maxRetries    = 3
	retryBaseWait = 500 * time.Millisecond
)

// newHTTPClient creates a fresh HTTP client with disabled connection reuse.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DisableKeepAlives: true,
		},
	}
}

// CleanlyCloseBody drains and closes an HTTP response body to prevent
// HTTP/2 GOAWAY errors caused by closing bodies with unread data.
// See: https://github.com/golang/go/issues/46071
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// isRetryableError checks if an error is transient and worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if errors.Is(err, io.EOF) || strings.Contains(errStr, "EOF") {
		return true
	}
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") {
		return true
	}
	return false
}

// JSONTransport speaks JSON-RPC 2.0 over HTTP, as rtorrent 0.15+ does on
// its RPC endpoint. Batches of more than one call go through
// system.multicall.
type JSONTransport struct {
	uri     *url.URL
	client  *http.Client
	options []Option
	logger  *slog.Logger
	timeout time.Duration
}

var _ Transport = (*JSONTransport)(nil)

// NewJSONTransport creates a transport posting to rawURL.
func NewJSONTransport(rawURL string, opts ...DialOption) (*JSONTransport, error) {
	o := newDialOptions(opts)
	return newJSONTransport(rawURL, o)
}

func dialJSON(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	return newJSONTransport(addr, o)
}

func newJSONTransport(rawURL string, o *dialOptions) (*JSONTransport, error) {
	uri, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	return &JSONTransport{
		uri:     uri,
		client:  o.httpClient,
		options: o.options,
		logger:  o.logger,
		timeout: o.timeout,
	}, nil
}

func (t *JSONTransport) Execute(ctx context.Context, batch []Request) ([]any, error) {
	if len(batch) == 1 {
		var reply any
		if err := t.send(ctx, batch[0].Method, batch[0].Params, &reply); err != nil {
			return nil, err
		}
		return []any{reply}, nil
	}

	var reply any
	if err := t.send(ctx, multicallMethod, multicallParams(batch), &reply); err != nil {
		return nil, err
	}
	return unwrapMulticall(reply, len(batch))
}

func (t *JSONTransport) send(ctx context.Context, method string, params []any, reply any) error {
	if params == nil {
		params = []any{}
	}
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()
	uri := *t.uri
	err := SendJSONRequest(ctx, &uri, method, params, reply, t.client, t.logger, t.options...)
	var rpcErr *json2.Error
	if errors.As(err, &rpcErr) {
		return &FaultError{Code: int(rpcErr.Code), Message: rpcErr.Message}
	}
	return err
}

func (t *JSONTransport) Close() error { return nil }

// SendJSONRequest posts one JSON-RPC request to uri and decodes the result
// into reply, retrying transient network failures with exponential backoff.
// A nil client gets a fresh one per attempt.
func SendJSONRequest(
	ctx context.Context,
	uri *url.URL,
	method string,
	params any,
	reply any,
	client *http.Client,
	logger *slog.Logger,
	options ...Option,
) error {
	if logger == nil {
		logger = slog.Default()
	}
	requestBodyBytes, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("failed to encode client params: %w", err)
	}

	ops := NewOptions(options)
	uri.RawQuery = ops.queryParams.Encode()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := retryBaseWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		// body buffer is consumed by each attempt
		request, err := http.NewRequestWithContext(
			ctx,
			http.MethodPost,
			uri.String(),
			bytes.NewBuffer(requestBodyBytes),
		)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		request.Header = ops.headers.Clone()
		request.Header.Set("Content-Type", "application/json")

		c := client
		if c == nil {
			c = newHTTPClient()
		}
		resp, err := c.Do(request)
		if err != nil {
			lastErr = err
			logger.Debug("json-rpc request failed",
				"method", method,
				"attempt", attempt+1,
				"retryable", isRetryableError(err),
				"err", err,
			)
			if isRetryableError(err) {
				continue
			}
			return fmt.Errorf("failed to issue request: %w", err)
		}
		if attempt > 0 {
			logger.Debug("json-rpc request succeeded after retry", "method", method, "attempt", attempt+1)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			CleanlyCloseBody(resp.Body)
			return fmt.Errorf("received status code: %d", resp.StatusCode)
		}

		if err := json2.DecodeClientResponse(resp.Body, reply); err != nil {
			CleanlyCloseBody(resp.Body)
			var rpcErr *json2.Error
			if errors.As(err, &rpcErr) {
				return err
			}
			return fmt.Errorf("failed to decode client response: %w", err)
		}
		CleanlyCloseBody(resp.Body)
		return nil
	}

	return fmt.Errorf("failed to issue request after %d retries: %w", maxRetries, lastErr)
}
