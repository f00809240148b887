// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodResolvePicksFirstAvailable(t *testing.T) {
	m := NewMethod("name", []string{"d.name1", "d.name2"}, Retriever())

	name, err := m.Resolve(NewMethodSet("d.name2"))
	require.NoError(t, err)
	assert.Equal(t, "d.name2", name)

	name, err = m.Resolve(NewMethodSet("d.name1", "d.name2"))
	require.NoError(t, err)
	assert.Equal(t, "d.name1", name)
}

func TestMethodResolveUnavailable(t *testing.T) {
	m := NewMethod("name", []string{"d.name", "d.get_name"})

	assert.False(t, m.IsAvailable(NewMethodSet("d.size_bytes")))
	_, err := m.Resolve(NewMethodSet("d.size_bytes"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailableMethod)

	var ue *UnavailableMethodError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "name", ue.Key)
	assert.Equal(t, []string{"d.name", "d.get_name"}, ue.Candidates)
}

func TestMethodPostProcessOrder(t *testing.T) {
	m := NewMethod("x", []string{"x"}, WithPostProcessors(appendOne("1"), appendOne("2")))
	v, err := m.PostProcess("v")
	require.NoError(t, err)
	assert.Equal(t, "v12", v)
}

func TestMethodPostProcessError(t *testing.T) {
	m := NewMethod("size", []string{"d.size_bytes"}, WithPostProcessors(ToInt))
	_, err := m.PostProcess("not a number")
	assert.ErrorIs(t, err, ErrMalformedResult)
}

func TestMethodEncodeArgs(t *testing.T) {
	m := NewMethod("set", []string{"t.is_enabled.set"}, WithArgEncoders(PrependArgs(""), EncodeBool))
	args := []any{"hash:t0", true}

	out, err := m.EncodeArgs(args)
	require.NoError(t, err)
	assert.Equal(t, []any{"", "hash:t0", 1}, out)
	assert.Equal(t, []any{"hash:t0", true}, args, "input must not be modified")

	encErr := errors.New("bad arg")
	m = NewMethod("bad", []string{"bad"}, WithArgEncoders(func([]any) ([]any, error) { return nil, encErr }))
	_, err = m.EncodeArgs(nil)
	assert.ErrorIs(t, err, encErr)
}

func TestMethodEncodeArgsEmpty(t *testing.T) {
	out, err := NewMethod("x", []string{"x"}).EncodeArgs(nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMethodSetNames(t *testing.T) {
	s := NewMethodSet("d.name", "d.hash", "d.name")
	assert.Equal(t, []string{"d.hash", "d.name"}, s.Names())
	assert.True(t, s.Has("d.hash"))
	assert.False(t, s.Has("d.size"))
}

func TestPostProcessors(t *testing.T) {
	tests := []struct {
		name string
		fn   PostProcessor
		in   any
		want any
	}{
		{"int from string", ToInt, "1024", int64(1024)},
		{"int from float", ToInt, float64(2048), int64(2048)},
		{"int from json number", ToInt, json.Number("4096"), int64(4096)},
		{"float from string", ToFloat, "1.5", 1.5},
		{"float from int", ToFloat, int64(3), 3.0},
		{"bool from int", ToBool, int64(1), true},
		{"bool from zero", ToBool, float64(0), false},
		{"bool passthrough", ToBool, true, true},
		{"string from bytes", ToString, []byte("abc"), "abc"},
		{"strings", ToStrings, []any{"a", "b"}, []string{"a", "b"}},
		{"time", ToTime, int64(1700000000), time.Unix(1700000000, 0).UTC()},
		{"divide", DivideBy(1000), int64(1500), 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostProcessorsReject(t *testing.T) {
	for name, fn := range map[string]PostProcessor{
		"int":     ToInt,
		"float":   ToFloat,
		"bool":    ToBool,
		"string":  ToString,
		"strings": ToStrings,
		"time":    ToTime,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := fn(struct{}{})
			assert.ErrorIs(t, err, ErrMalformedResult)
		})
	}
}

func TestToIntRejectsLossyFloats(t *testing.T) {
	for _, f := range []float64{1.5, -0.25, math.Ldexp(1, 63), -math.Ldexp(1, 64), math.Inf(1), math.NaN()} {
		_, err := ToInt(f)
		assert.ErrorIs(t, err, ErrMalformedResult, "%v", f)
	}

	got, err := ToInt(-math.Ldexp(1, 63))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)
}
