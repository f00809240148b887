// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"
	"slices"
)

// MetadataFunc builds a domain record from a key -> value mapping.
type MetadataFunc[T any] func(fields map[string]any) T

// Multicall fetches the same set of retriever fields for every object the
// server addresses with one multicall method (d.multicall2, f.multicall, ...).
//
// Selection errors are sticky: the first one is returned from Call and no
// request is sent. A Multicall is single-use.
type Multicall[T any] struct {
	conn      Conn
	class     *Class
	method    *Method
	build     MetadataFunc[T]
	available MethodSet
	args      []any
	keys      []string
	fields    []*Method
	err       error
	executed  bool
	opts      []CallerOption
}

// NewMulticall prepares a multicall of method over objects of class. args
// are the leading multicall arguments (target, view, filter).
func NewMulticall[T any](conn Conn, class *Class, method *Method, build MetadataFunc[T], args ...any) *Multicall[T] {
	return &Multicall[T]{
		conn:      conn,
		class:     class,
		method:    method,
		build:     build,
		available: conn.AvailableMethods(),
		args:      slices.Clone(args),
	}
}

// WithCallerOptions sets options for the Caller that runs the multicall.
func (b *Multicall[T]) WithCallerOptions(opts ...CallerOption) *Multicall[T] {
	b.opts = append(b.opts, opts...)
	return b
}

// Select adds the field registered under key. The field order of every
// returned record follows selection order.
func (b *Multicall[T]) Select(keys ...string) *Multicall[T] {
	for _, key := range keys {
		if b.err != nil {
			return b
		}
		m, err := b.validate(key)
		if err != nil {
			b.err = err
			return b
		}
		b.keys = append(b.keys, key)
		b.fields = append(b.fields, m)
	}
	return b
}

// Keys returns the selected keys.
func (b *Multicall[T]) Keys() []string { return slices.Clone(b.keys) }

// Err returns the first selection error.
func (b *Multicall[T]) Err() error { return b.err }

func (b *Multicall[T]) validate(key string) (*Method, error) {
	d, err := b.class.Lookup(key)
	if err != nil {
		return nil, err
	}
	m, ok := d.(*Method)
	if !ok {
		// pseudo methods cannot be expressed as a field directive
		return nil, &NotRetrieverError{Key: key}
	}
	if !m.IsAvailable(b.available) {
		return nil, &UnavailableMethodError{Key: key, Candidates: m.Candidates()}
	}
	if !m.IsRetriever() {
		return nil, &NotRetrieverError{Key: key}
	}
	return m, nil
}

// Call runs the multicall and returns one record per remote object, in the
// order the server returned them.
func (b *Multicall[T]) Call(ctx context.Context) ([]T, error) {
	if b.executed {
		return nil, ErrBuilderUsed
	}
	b.executed = true
	if b.err != nil {
		return nil, b.err
	}

	args := slices.Clone(b.args)
	for _, m := range b.fields {
		name, err := m.Resolve(b.available)
		if err != nil {
			return nil, err
		}
		args = append(args, name+"=")
	}

	res, err := NewCaller(b.conn, b.opts...).AddMethod(b.method, args...).Call(ctx)
	if err != nil {
		return nil, err
	}
	rows, ok := res[0].([]any)
	if !ok {
		return nil, b.malformed("result is %T, not a list", res[0])
	}

	records := make([]T, 0, len(rows))
	for i, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) != len(b.fields) {
			return nil, b.malformed("row %d does not hold %d fields", i, len(b.fields))
		}
		fields := make(map[string]any, len(row))
		for j, raw := range row {
			v, err := b.fields[j].PostProcess(raw)
			if err != nil {
				return nil, transportErr(b.keys[j], err)
			}
			fields[b.keys[j]] = v
		}
		records = append(records, b.build(fields))
	}
	return records, nil
}

func (b *Multicall[T]) malformed(format string, a ...any) error {
	return &TransportError{
		Op:  b.method.Key(),
		Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformedResult}, a...)...),
	}
}
