// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"errors"
	"maps"
)

// Invocation pairs a resolved component method with its arguments.
type Invocation struct {
	Method *Method
	Args   []any
}

// InputHandler maps the arguments of a pseudo method onto component calls.
type InputHandler func(components map[string]*Method, args []any) ([]Invocation, error)

// OutputHandler combines component results into the pseudo method's result.
type OutputHandler func(results []any) (any, error)

var errNoInvocation = errors.New("rtrpc: input handler returned no invocations")

// Pseudo is a method synthesized from other registered methods.
//
// Only the first Invocation returned by the input handler is issued; the
// output handler is given that single result.
type Pseudo struct {
	key        string
	components map[string]*Method
	input      InputHandler
	output     OutputHandler
}

func (*Pseudo) descriptor() {}

// Key returns the registry key.
func (p *Pseudo) Key() string { return p.key }

// Components returns the component methods keyed by their registry key.
func (p *Pseudo) Components() map[string]*Method { return maps.Clone(p.components) }

// Invocations runs the input handler.
func (p *Pseudo) Invocations(args []any) ([]Invocation, error) {
	if p.input == nil {
		return nil, errNoInvocation
	}
	inv, err := p.input(p.Components(), args)
	if err != nil {
		return nil, err
	}
	if len(inv) == 0 || inv[0].Method == nil {
		return nil, errNoInvocation
	}
	return inv, nil
}

// Output runs the output handler; a nil handler passes the first result through.
func (p *Pseudo) Output(results []any) (any, error) {
	if p.output == nil {
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
	return p.output(results)
}
