// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rtrpc is a declarative method-dispatch layer for rtorrent-style
// RPC servers, where named remote procedures act on addressable objects
// (torrents, files, trackers).
//
// # Declaring methods
//
// Each kind of remote object gets a Class. A method is registered once with
// its candidate protocol names, newest first or oldest first; the first name
// the connected server lists wins:
//
//	var Torrent = rtrpc.NewClass("torrent")
//
//	var _ = Torrent.Register("name", []string{"d.name", "d.get_name"}, rtrpc.Retriever())
//	var _ = Torrent.Register("size", []string{"d.size_bytes"},
//	    rtrpc.Retriever(), rtrpc.WithPostProcessors(rtrpc.ToInt))
//
// # Single calls
//
//	conn, err := rtrpc.DialConn(ctx, "http://localhost/RPC2", rtrpc.WithTransport(rtrpc.TransportXML))
//	obj := rtrpc.NewObject(Torrent, conn)
//	name, err := obj.Exec(ctx, "name", hash)
//
// # Multicalls
//
// A Multicall fetches several retriever fields of every object in a view
// with one round-trip and returns one record per object:
//
//	records, err := rtrpc.NewMulticall(conn, Torrent, multicall, build, "", "main").
//	    Select("name", "size").
//	    Call(ctx)
//
// # Transport Selection
//
// ZAP is the default transport. JSON-RPC and XML-RPC over HTTP are always
// available; gRPC needs a build tag:
//
//	go build              # zap, json, xml
//	go build -tags grpc   # adds gRPC
//
// # Architecture
//
//   - method.go, pseudo.go, registry.go: descriptors and per-class tables
//   - call.go, caller.go: resolved calls and the batching Caller
//   - object.go, multicall.go: single-call dispatch and multicall fetches
//   - conn.go, client.go, transport.go, dial.go: Conn/Transport and Dial
//   - zap.go, json.go, xmlrpc.go, dial_grpc.go: transports
//   - middleware.go, config.go: transport decorators and YAML config
package rtrpc
