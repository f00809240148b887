// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"maps"
	"sort"
	"sync"
)

// Class is the method table for one kind of remote object (torrent, file,
// tracker). Tables are independent: a Class never sees another's entries.
//
// Registration normally happens once in a package var initializer; the mutex
// only guards against misuse.
type Class struct {
	name string

	mu      sync.RWMutex
	methods map[string]Descriptor
}

// NewClass creates an empty class named name.
func NewClass(name string) *Class {
	return &Class{
		name:    name,
		methods: make(map[string]Descriptor),
	}
}

// Name returns the class tag.
func (c *Class) Name() string { return c.name }

// Register adds a Method under key, replacing any previous entry.
func (c *Class) Register(key string, candidates []string, opts ...MethodOption) *Method {
	m := NewMethod(key, candidates, opts...)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods[key] = m
	return m
}

// RegisterPseudo adds a method composed from already registered methods.
// Component lookup happens now, so components must be registered first.
func (c *Class) RegisterPseudo(key string, componentKeys []string, in InputHandler, out OutputHandler) (*Pseudo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	components := make(map[string]*Method, len(componentKeys))
	for _, k := range componentKeys {
		m, ok := c.methods[k].(*Method)
		if !ok {
			return nil, &UnknownComponentError{
				Pseudo: key,
				Err:    &UnknownMethodError{Class: c.name, Key: k},
			}
		}
		components[k] = m
	}

	p := &Pseudo{
		key:        key,
		components: components,
		input:      in,
		output:     out,
	}
	c.methods[key] = p
	return p, nil
}

// Lookup returns the descriptor registered under key.
func (c *Class) Lookup(key string) (Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.methods[key]
	if !ok {
		return nil, &UnknownMethodError{Class: c.name, Key: key}
	}
	return d, nil
}

// Method returns the plain Method under key; a pseudo method counts as unknown.
func (c *Class) Method(key string) (*Method, error) {
	d, err := c.Lookup(key)
	if err != nil {
		return nil, err
	}
	m, ok := d.(*Method)
	if !ok {
		return nil, &UnknownMethodError{Class: c.name, Key: key}
	}
	return m, nil
}

// Methods returns a copy of the registry.
func (c *Class) Methods() map[string]Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.methods)
}

// Keys returns the registered keys in sorted order.
func (c *Class) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.methods))
	for k := range c.methods {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
