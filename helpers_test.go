// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"errors"
)

// stubConn records every batch and answers with exec.
type stubConn struct {
	methods MethodSet
	batches [][]Request
	exec    func(batch []Request) ([]any, error)
}

func newStubConn(exec func(batch []Request) ([]any, error), methods ...string) *stubConn {
	return &stubConn{methods: NewMethodSet(methods...), exec: exec}
}

func (s *stubConn) AvailableMethods() MethodSet { return s.methods }

func (s *stubConn) Execute(_ context.Context, batch []Request) ([]any, error) {
	s.batches = append(s.batches, batch)
	if s.exec == nil {
		return nil, errors.New("stub: no exec")
	}
	return s.exec(batch)
}

// neverConn fails the test if anything reaches the transport.
type neverConn struct {
	methods MethodSet
	called  bool
}

func (n *neverConn) AvailableMethods() MethodSet { return n.methods }

func (n *neverConn) Execute(context.Context, []Request) ([]any, error) {
	n.called = true
	return nil, errors.New("transport must not be called")
}

func appendOne(suffix string) PostProcessor {
	return func(v any) (any, error) {
		return v.(string) + suffix, nil
	}
}
