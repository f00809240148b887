//go:build grpc

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// GRPCMulticallMethod is the full gRPC method a gateway must serve. It
// takes the system.multicall params and returns the system.multicall result.
const GRPCMulticallMethod = "/rtrpc.Dispatcher/Multicall"

func init() {
	// Register gRPC transport when build tag is enabled
	registerTransport(TransportGRPC, dialGRPC)
	encoding.RegisterCodec(grpcCodec{defaultCodec})
}

// grpcCodec carries batches as JSON so no generated messages are needed.
type grpcCodec struct {
	Codec
}

func (c grpcCodec) Marshal(v any) ([]byte, error)      { return c.Encode(v) }
func (c grpcCodec) Unmarshal(data []byte, v any) error { return c.Decode(data, v) }
func (grpcCodec) Name() string                         { return "json" }

func dialGRPC(_ context.Context, addr string, o *dialOptions) (Transport, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
	)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &grpcTransport{conn: conn}, nil
}

type grpcTransport struct {
	conn *grpc.ClientConn
}

func (t *grpcTransport) Execute(ctx context.Context, batch []Request) ([]any, error) {
	var reply any
	if err := t.conn.Invoke(ctx, GRPCMulticallMethod, multicallParams(batch), &reply); err != nil {
		return nil, err
	}
	return unwrapMulticall(reply, len(batch))
}

func (t *grpcTransport) Close() error {
	return t.conn.Close()
}
