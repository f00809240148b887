// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/rpc"
	"regexp"
	"strconv"
	"time"

	"github.com/kolo/xmlrpc"
)

// XMLTransport speaks XML-RPC over HTTP, rtorrent's native RPC protocol
// (usually exposed through an SCGI-to-HTTP proxy).
//
// The underlying client cannot cancel a request. When ctx is done Execute
// returns at once, but the HTTP request runs on until the server answers or
// the connection drops.
type XMLTransport struct {
	client  *xmlrpc.Client
	timeout time.Duration
}

var _ Transport = (*XMLTransport)(nil)

// NewXMLTransport creates an XML-RPC transport for rawURL.
func NewXMLTransport(rawURL string, opts ...DialOption) (*XMLTransport, error) {
	return newXMLTransport(rawURL, newDialOptions(opts))
}

func dialXML(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	return newXMLTransport(addr, o)
}

func newXMLTransport(rawURL string, o *dialOptions) (*XMLTransport, error) {
	var rt http.RoundTripper
	if o.httpClient != nil {
		rt = o.httpClient.Transport
	}
	if len(o.options) > 0 {
		rt = &headerRoundTripper{next: rt, opts: NewOptions(o.options)}
	}
	client, err := xmlrpc.NewClient(rawURL, rt)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc client: %w", err)
	}
	return &XMLTransport{client: client, timeout: o.timeout}, nil
}

func (t *XMLTransport) Execute(ctx context.Context, batch []Request) ([]any, error) {
	if len(batch) == 1 {
		var reply any
		if err := t.call(ctx, batch[0].Method, batch[0].Params, &reply); err != nil {
			return nil, err
		}
		return []any{reply}, nil
	}

	var reply any
	if err := t.call(ctx, multicallMethod, multicallParams(batch), &reply); err != nil {
		return nil, err
	}
	return unwrapMulticall(reply, len(batch))
}

func (t *XMLTransport) call(ctx context.Context, method string, params []any, reply any) error {
	if params == nil {
		params = []any{}
	}
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()
	call := t.client.Go(method, params, reply, nil)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-call.Done:
	}

	var faultPtr *xmlrpc.FaultError
	if errors.As(call.Error, &faultPtr) {
		return &FaultError{Code: faultPtr.Code, Message: faultPtr.String}
	}
	// net/rpc flattens server faults into rpc.ServerError strings
	var serverErr rpc.ServerError
	if errors.As(call.Error, &serverErr) {
		if m := faultRx.FindStringSubmatch(string(serverErr)); m != nil {
			code, _ := strconv.Atoi(m[1])
			return &FaultError{Code: code, Message: m[2]}
		}
	}
	return call.Error
}

var faultRx = regexp.MustCompile(`^Fault\((-?\d+)\): (.*)$`)

func (t *XMLTransport) Close() error {
	return t.client.Close()
}

// headerRoundTripper adds Options headers and query parameters to every request.
type headerRoundTripper struct {
	next http.RoundTripper
	opts *Options
}

func (h *headerRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range h.opts.headers {
		r.Header[k] = v
	}
	if len(h.opts.queryParams) > 0 {
		r.URL.RawQuery = h.opts.queryParams.Encode()
	}
	next := h.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(r)
}
