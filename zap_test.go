// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"errors"
	"testing"
	"time"
)

// startServer runs a ZAP server that knows a two-torrent session.
func startServer(t testing.TB) *Server {
	t.Helper()

	server, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	torrents := [][]any{
		{"Foo", "1024"},
		{"Bar", "2048"},
	}
	server.Handle("d.name", func(ctx context.Context, params []any) (any, error) {
		if len(params) != 1 || params[0] != "HASH" {
			return nil, &FaultError{Code: -501, Message: "bad target"}
		}
		return "Foo", nil
	})
	server.Handle("d.size_bytes", func(ctx context.Context, params []any) (any, error) {
		return 1024, nil
	})
	server.Handle("d.multicall", func(ctx context.Context, params []any) (any, error) {
		if len(params) != 3 || params[1] != "d.name=" || params[2] != "d.size_bytes=" {
			return nil, errors.New("unexpected fields")
		}
		return torrents, nil
	})

	go server.Serve(context.Background())
	return server
}

func TestZAPRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t)
	conn, err := DialConn(ctx, server.Addr())
	if err != nil {
		t.Fatalf("DialConn: %v", err)
	}
	defer conn.Close()

	for _, name := range []string{"d.name", "d.multicall", "system.multicall"} {
		if !conn.AvailableMethods().Has(name) {
			t.Errorf("method %q missing from snapshot", name)
		}
	}

	class := newTorrentClass()
	v, err := NewObject(class, conn).Exec(ctx, "size", "HASH")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if v != int64(1024) {
		t.Errorf("got %v (%T), want 1024", v, v)
	}

	records, err := NewMulticall(conn, class, dMulticall, record, "main").
		Select("name", "size").
		Call(ctx)
	if err != nil {
		t.Fatalf("multicall: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[1]["name"] != "Bar" || records[1]["size"] != int64(2048) {
		t.Errorf("unexpected second record: %v", records[1])
	}
}

func TestZAPBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t)
	conn, err := DialConn(ctx, server.Addr())
	if err != nil {
		t.Fatalf("DialConn: %v", err)
	}
	defer conn.Close()

	class := newTorrentClass()
	name, _ := class.Method("name")
	size, _ := class.Method("size")
	res, err := NewCaller(conn).AddMethod(name, "HASH").AddMethod(size, "HASH").Call(ctx)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if res[0] != "Foo" || res[1] != int64(1024) {
		t.Errorf("got %v", res)
	}
}

func TestZAPFaultFailsBatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t)
	conn, err := DialConn(ctx, server.Addr())
	if err != nil {
		t.Fatalf("DialConn: %v", err)
	}
	defer conn.Close()

	_, err = NewCaller(conn).Add(RawCall("d.name", "WRONG")).Add(RawCall("d.size_bytes", "HASH")).Call(ctx)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("got %v, want transport error", err)
	}
	var fault *FaultError
	if !errors.As(err, &fault) || fault.Code != -501 {
		t.Errorf("got %v, want fault -501", err)
	}

	// Bypass the snapshot so the server sees a method it does not know.
	_, err = conn.Execute(ctx, []Request{{Method: "d.name", Params: []any{"HASH"}}, {Method: "d.nope"}})
	if !errors.As(err, &fault) || fault.Code != FaultMethodNotFound {
		t.Errorf("got %v, want fault %d", err, FaultMethodNotFound)
	}
}

func TestZAPClosedConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := startServer(t)
	tr, err := Dial(ctx, server.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	tr.Close()

	_, err = tr.Execute(ctx, []Request{{Method: "d.name", Params: []any{"HASH"}}})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestDialUnknownTransport(t *testing.T) {
	_, err := Dial(context.Background(), "localhost:0", WithTransport("carrier-pigeon"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAvailableTransports(t *testing.T) {
	for _, name := range []string{TransportZAP, TransportJSON, TransportXML} {
		if !HasTransport(name) {
			t.Errorf("transport %q not registered", name)
		}
	}
}

func BenchmarkZAPMulticall(b *testing.B) {
	ctx := context.Background()
	server := startServer(b)
	conn, err := DialConn(ctx, server.Addr())
	if err != nil {
		b.Fatalf("DialConn: %v", err)
	}
	defer conn.Close()

	class := newTorrentClass()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, err := NewMulticall(conn, class, dMulticall, record, "main").
			Select("name", "size").
			Call(ctx)
		if err != nil {
			b.Fatal(err)
		}
	}
}
