// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"slices"
	"sort"
)

// MethodSet is a snapshot of the remote method names a server supports.
type MethodSet map[string]struct{}

// NewMethodSet builds a MethodSet from names.
func NewMethodSet(names ...string) MethodSet {
	s := make(MethodSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is supported.
func (s MethodSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the sorted method names.
func (s MethodSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PostProcessor converts a raw decoded value into the value exposed to callers.
type PostProcessor func(v any) (any, error)

// ArgEncoder transforms caller arguments before they are sent.
type ArgEncoder func(args []any) ([]any, error)

// Descriptor is an entry in a Class registry: either a *Method or a *Pseudo.
type Descriptor interface {
	Key() string
	descriptor()
}

// Method describes one remote procedure. Candidates are ordered protocol
// names, oldest server first or newest first as the class prefers; the first
// one the server supports wins. A Method is immutable after registration.
type Method struct {
	key        string
	candidates []string
	encoders   []ArgEncoder
	post       []PostProcessor
	retriever  bool
}

// MethodOption configures a Method at registration.
type MethodOption func(*Method)

// Retriever marks the method as read-only, making it eligible for multicalls.
func Retriever() MethodOption {
	return func(m *Method) { m.retriever = true }
}

// WithPostProcessors appends result post-processors, applied in order.
func WithPostProcessors(p ...PostProcessor) MethodOption {
	return func(m *Method) { m.post = append(m.post, p...) }
}

// WithArgEncoders appends argument encoders, applied in order.
func WithArgEncoders(e ...ArgEncoder) MethodOption {
	return func(m *Method) { m.encoders = append(m.encoders, e...) }
}

// NewMethod builds a standalone Method. Most callers go through Class.Register.
func NewMethod(key string, candidates []string, opts ...MethodOption) *Method {
	m := &Method{
		key:        key,
		candidates: slices.Clone(candidates),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (*Method) descriptor() {}

// Key returns the registry key.
func (m *Method) Key() string { return m.key }

// Candidates returns a copy of the candidate protocol names.
func (m *Method) Candidates() []string { return slices.Clone(m.candidates) }

// IsRetriever reports whether the method only reads remote state.
func (m *Method) IsRetriever() bool { return m.retriever }

// IsAvailable reports whether any candidate name is in available.
func (m *Method) IsAvailable(available MethodSet) bool {
	_, ok := m.lookup(available)
	return ok
}

// Resolve returns the first candidate name present in available.
func (m *Method) Resolve(available MethodSet) (string, error) {
	name, ok := m.lookup(available)
	if !ok {
		return "", &UnavailableMethodError{Key: m.key, Candidates: m.Candidates()}
	}
	return name, nil
}

func (m *Method) lookup(available MethodSet) (string, bool) {
	for _, name := range m.candidates {
		if available.Has(name) {
			return name, true
		}
	}
	return "", false
}

// EncodeArgs runs args through the argument encoders.
func (m *Method) EncodeArgs(args []any) ([]any, error) {
	out := slices.Clone(args)
	for _, enc := range m.encoders {
		var err error
		if out, err = enc(out); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// PostProcess folds the post-processors over raw, left to right.
func (m *Method) PostProcess(raw any) (any, error) {
	v := raw
	for _, p := range m.post {
		var err error
		if v, err = p(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}
