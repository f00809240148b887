// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"fmt"
	"slices"
)

// Request is one resolved call as it goes on the wire. The JSON field names
// match the system.multicall struct members.
type Request struct {
	Method string `json:"methodName"`
	Params []any  `json:"params"`
}

// Call is a single invocation of a Method, resolved lazily against the
// server's method set when it is executed.
type Call struct {
	method *Method
	args   []any
}

// NewCall creates a Call of m with args.
func NewCall(m *Method, args ...any) *Call {
	return &Call{method: m, args: slices.Clone(args)}
}

// RawCall calls a protocol method by its exact name, with no post-processing.
func RawCall(name string, args ...any) *Call {
	return NewCall(NewMethod(name, []string{name}, Retriever()), args...)
}

// Method returns the descriptor being called.
func (c *Call) Method() *Method { return c.method }

// Args returns a copy of the unencoded arguments.
func (c *Call) Args() []any { return slices.Clone(c.args) }

// Resolve picks the protocol name and encodes the arguments.
func (c *Call) Resolve(available MethodSet) (Request, error) {
	name, err := c.method.Resolve(available)
	if err != nil {
		return Request{}, err
	}
	params, err := c.method.EncodeArgs(c.args)
	if err != nil {
		return Request{}, fmt.Errorf("rtrpc: encode args for %q: %w", c.method.Key(), err)
	}
	return Request{Method: name, Params: params}, nil
}
