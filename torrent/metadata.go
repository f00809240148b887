// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package torrent

import (
	"maps"
	"time"
)

// Metadata is the post-processed result of a multicall for one remote
// object, keyed by method key. Getters return the zero value for fields that
// were not selected.
type Metadata struct {
	fields map[string]any
}

// NewMetadata wraps fields. It is the MetadataFunc used by the builders.
func NewMetadata(fields map[string]any) Metadata {
	return Metadata{fields: maps.Clone(fields)}
}

// Get returns the value for key and whether it was selected.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// Fields returns a copy of all fields.
func (m Metadata) Fields() map[string]any { return maps.Clone(m.fields) }

func (m Metadata) String(key string) string {
	s, _ := m.fields[key].(string)
	return s
}

func (m Metadata) Int(key string) int64 {
	n, _ := m.fields[key].(int64)
	return n
}

func (m Metadata) Float(key string) float64 {
	f, _ := m.fields[key].(float64)
	return f
}

func (m Metadata) Bool(key string) bool {
	b, _ := m.fields[key].(bool)
	return b
}

func (m Metadata) Time(key string) time.Time {
	t, _ := m.fields[key].(time.Time)
	return t
}
