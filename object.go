// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"
)

// Object is a remote object of some Class, reached through conn.
type Object struct {
	class *Class
	conn  Conn
	opts  []CallerOption
}

// NewObject binds class to conn.
func NewObject(class *Class, conn Conn, opts ...CallerOption) *Object {
	return &Object{class: class, conn: conn, opts: opts}
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// Conn returns the connection the object calls through.
func (o *Object) Conn() Conn { return o.conn }

// Call builds the Call for key. For a pseudo method it is built from the
// first invocation the input handler produces.
func (o *Object) Call(key string, args ...any) (*Call, error) {
	call, _, err := o.build(key, args)
	return call, err
}

// Exec runs key as a single call and returns its one post-processed result.
// A pseudo method's output handler is applied to that result.
func (o *Object) Exec(ctx context.Context, key string, args ...any) (any, error) {
	call, d, err := o.build(key, args)
	if err != nil {
		return nil, err
	}
	res, err := NewCaller(o.conn, o.opts...).Add(call).Call(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := d.(*Pseudo); ok {
		return p.Output(res[:1])
	}
	return res[0], nil
}

func (o *Object) build(key string, args []any) (*Call, Descriptor, error) {
	d, err := o.class.Lookup(key)
	if err != nil {
		return nil, nil, err
	}
	switch d := d.(type) {
	case *Method:
		return NewCall(d, args...), d, nil
	case *Pseudo:
		inv, err := d.Invocations(args)
		if err != nil {
			return nil, nil, fmt.Errorf("rtrpc: %s.%s: %w", o.class.name, key, err)
		}
		return NewCall(inv[0].Method, inv[0].Args...), d, nil
	}
	return nil, nil, &UnknownMethodError{Class: o.class.name, Key: key}
}
