// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"net/http"
	"net/url"
)

// Option sets per-request HTTP headers and query parameters.
type Option func(*Options)

// Options collects what Option values set.
type Options struct {
	headers     http.Header
	queryParams url.Values
}

// NewOptions applies ops to a fresh Options.
func NewOptions(ops []Option) *Options {
	o := &Options{
		headers:     http.Header{},
		queryParams: url.Values{},
	}
	for _, op := range ops {
		op(o)
	}
	return o
}

// Headers returns the collected headers.
func (o *Options) Headers() http.Header { return o.headers }

// QueryParams returns the collected query parameters.
func (o *Options) QueryParams() url.Values { return o.queryParams }

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(o *Options) { o.headers.Set(key, value) }
}

// WithQueryParam adds a query parameter.
func WithQueryParam(key, value string) Option {
	return func(o *Options) { o.queryParams.Add(key, value) }
}

// WithBasicAuth sets an Authorization header for servers behind a proxy
// such as nginx's scgi_pass.
func WithBasicAuth(user, password string) Option {
	return func(o *Options) {
		r := &http.Request{Header: o.headers}
		r.SetBasicAuth(user, password)
	}
}
