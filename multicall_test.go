// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dMulticall = NewMethod("multicall", []string{"d.multicall"}, Retriever())

func record(fields map[string]any) map[string]any { return fields }

func TestMulticallTorrentExample(t *testing.T) {
	conn := newStubConn(func(batch []Request) ([]any, error) {
		return []any{[]any{
			[]any{"Foo", "1024"},
			[]any{"Bar", "2048"},
		}}, nil
	}, "d.name", "d.size_bytes", "d.multicall")

	got, err := NewMulticall(conn, newTorrentClass(), dMulticall, record, "main").
		Select("name").
		Select("size").
		Call(context.Background())
	require.NoError(t, err)

	want := []map[string]any{
		{"name": "Foo", "size": int64(1024)},
		{"name": "Bar", "size": int64(2048)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, conn.batches, 1)
	wantReq := []Request{{
		Method: "d.multicall",
		Params: []any{"main", "d.name=", "d.size_bytes="},
	}}
	if diff := cmp.Diff(wantReq, conn.batches[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestMulticallAppliesPostProcessorsPerField(t *testing.T) {
	c := NewClass("torrent")
	c.Register("label", []string{"d.custom1"}, Retriever(), WithPostProcessors(appendOne("1"), appendOne("2")))

	const n = 5
	conn := newStubConn(func([]Request) ([]any, error) {
		rows := make([]any, n)
		for i := range rows {
			rows[i] = []any{fmt.Sprintf("l%d-", i)}
		}
		return []any{rows}, nil
	}, "d.custom1", "d.multicall")

	got, err := NewMulticall(conn, c, dMulticall, record, "main").Select("label").Call(context.Background())
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, r := range got {
		assert.Equal(t, fmt.Sprintf("l%d-12", i), r["label"])
	}
}

func TestMulticallRejectsModifier(t *testing.T) {
	conn := &neverConn{methods: NewMethodSet("d.name", "d.start", "d.multicall")}

	b := NewMulticall(conn, newTorrentClass(), dMulticall, record, "main").Select("name", "start")
	assert.ErrorIs(t, b.Err(), ErrNotRetriever)
	assert.Equal(t, []string{"name"}, b.Keys())

	_, err := b.Call(context.Background())
	assert.ErrorIs(t, err, ErrNotRetriever)
	var nre *NotRetrieverError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, "start", nre.Key)
	assert.False(t, conn.called)
}

func TestMulticallRejectsUnknown(t *testing.T) {
	conn := &neverConn{methods: NewMethodSet("d.name", "d.multicall")}

	_, err := NewMulticall(conn, newTorrentClass(), dMulticall, record).
		Select("bogus").
		Select("name").
		Call(context.Background())
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.False(t, conn.called)
}

func TestMulticallRejectsUnavailable(t *testing.T) {
	conn := &neverConn{methods: NewMethodSet("d.name", "d.multicall")}

	_, err := NewMulticall(conn, newTorrentClass(), dMulticall, record).
		Select("size").
		Call(context.Background())
	assert.ErrorIs(t, err, ErrUnavailableMethod)
	assert.False(t, conn.called)
}

func TestMulticallRejectsPseudo(t *testing.T) {
	c := newTorrentClass()
	_, err := c.RegisterPseudo("alias", []string{"name"},
		func(m map[string]*Method, args []any) ([]Invocation, error) {
			return []Invocation{{Method: m["name"], Args: args}}, nil
		}, nil)
	require.NoError(t, err)

	conn := &neverConn{methods: NewMethodSet("d.name", "d.multicall")}
	_, err = NewMulticall(conn, c, dMulticall, record).Select("alias").Call(context.Background())
	assert.ErrorIs(t, err, ErrNotRetriever)
	assert.False(t, conn.called)
}

func TestMulticallSingleUse(t *testing.T) {
	conn := newStubConn(func([]Request) ([]any, error) {
		return []any{[]any{}}, nil
	}, "d.name", "d.multicall")

	b := NewMulticall(conn, newTorrentClass(), dMulticall, record).Select("name")
	got, err := b.Call(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = b.Call(context.Background())
	assert.ErrorIs(t, err, ErrBuilderUsed)
	assert.Len(t, conn.batches, 1)
}

func TestMulticallMalformedRows(t *testing.T) {
	tests := map[string]any{
		"not a list":   "oops",
		"short row":    []any{[]any{"Foo"}},
		"row not list": []any{"Foo"},
	}
	for name, result := range tests {
		t.Run(name, func(t *testing.T) {
			conn := newStubConn(func([]Request) ([]any, error) {
				return []any{result}, nil
			}, "d.name", "d.size_bytes", "d.multicall")

			_, err := NewMulticall(conn, newTorrentClass(), dMulticall, record).
				Select("name", "size").
				Call(context.Background())
			assert.ErrorIs(t, err, ErrTransport)
			assert.ErrorIs(t, err, ErrMalformedResult)
		})
	}
}

func TestMulticallMethodUnavailable(t *testing.T) {
	conn := &neverConn{methods: NewMethodSet("d.name")}
	_, err := NewMulticall(conn, newTorrentClass(), dMulticall, record).Select("name").Call(context.Background())
	assert.ErrorIs(t, err, ErrUnavailableMethod)
	assert.False(t, conn.called)
}
