// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ErrZAPInvalidResp is returned for frames that cannot be parsed.
var ErrZAPInvalidResp = errors.New("zap: invalid response")

const zapMaxFrame = 64 * 1024 * 1024

// MessageType identifies ZAP message types
type MessageType uint8

const (
	MsgRequest  MessageType = 0x01
	MsgResponse MessageType = 0x02
	MsgError    MessageType = 0x03
)

// ZAPConn is a framed TCP connection carrying requests and responses.
type ZAPConn struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan *ZAPResponse
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

// ZAPResponse holds a response from a ZAP call
type ZAPResponse struct {
	Data []byte
	Err  error
}

// ZAPDial connects to a ZAP server
func ZAPDial(ctx context.Context, addr string) (*ZAPConn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("zap dial: %w", err)
	}

	zc := &ZAPConn{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go zc.readLoop()
	return zc, nil
}

// Call sends payload to method and waits for the response.
func (z *ZAPConn) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	if z.closed.Load() {
		return nil, ErrClosed
	}

	requestID := z.nextID.Add(1)
	respCh := make(chan *ZAPResponse, 1)
	z.pending.Store(requestID, respCh)
	defer z.pending.Delete(requestID)

	// [4 len][1 type][4 reqID][2 methodLen][method][payload]
	body := make([]byte, 1+4+2+len(method)+len(payload))
	body[0] = byte(MsgRequest)
	binary.BigEndian.PutUint32(body[1:5], requestID)
	binary.BigEndian.PutUint16(body[5:7], uint16(len(method)))
	copy(body[7:], method)
	copy(body[7+len(method):], payload)

	z.writeMu.Lock()
	err := writeFrame(z.conn, body)
	z.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("zap write: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-respCh:
		if resp.Err != nil {
			return nil, resp.Err
		}
		return resp.Data, nil
	case <-z.readDone:
		return nil, ErrClosed
	}
}

func (z *ZAPConn) readLoop() {
	defer close(z.readDone)

	for {
		msg, err := readFrame(z.conn)
		if err != nil {
			return
		}
		if len(msg) < 5 {
			continue
		}

		msgType := MessageType(msg[0])
		requestID := binary.BigEndian.Uint32(msg[1:5])
		payload := msg[5:]

		if ch, ok := z.pending.Load(requestID); ok {
			respCh := ch.(chan *ZAPResponse)
			switch msgType {
			case MsgResponse:
				respCh <- &ZAPResponse{Data: payload}
			case MsgError:
				respCh <- &ZAPResponse{Err: errors.New(string(payload))}
			default:
				respCh <- &ZAPResponse{Err: ErrZAPInvalidResp}
			}
		}
	}
}

// Close closes the connection
func (z *ZAPConn) Close() error {
	if z.closed.Swap(true) {
		return nil
	}
	return z.conn.Close()
}

// ZAPTransport sends every batch as one system.multicall frame.
type ZAPTransport struct {
	conn    *ZAPConn
	codec   Codec
	timeout time.Duration
}

var _ Transport = (*ZAPTransport)(nil)

func dialZAP(ctx context.Context, addr string, o *dialOptions) (Transport, error) {
	conn, err := ZAPDial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &ZAPTransport{conn: conn, codec: o.codec, timeout: o.timeout}, nil
}

func (t *ZAPTransport) Execute(ctx context.Context, batch []Request) ([]any, error) {
	payload, err := t.codec.Encode(multicallParams(batch))
	if err != nil {
		return nil, fmt.Errorf("encode args: %w", err)
	}
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()
	resp, err := t.conn.Call(ctx, multicallMethod, payload)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := t.codec.Decode(resp, &raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return unwrapMulticall(raw, len(batch))
}

func (t *ZAPTransport) Close() error {
	return t.conn.Close()
}

// HandlerFunc serves one remote method.
type HandlerFunc func(ctx context.Context, params []any) (any, error)

// Server answers ZAP frames with registered handlers. It implements
// system.listMethods and system.multicall itself, which makes it usable as a
// stand-in rtorrent for tests and tools.
type Server struct {
	listener net.Listener
	codec    Codec
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	conns  sync.Map
	closed atomic.Bool
}

// ServerOption configures servers
type ServerOption func(*Server)

// WithServerCodec sets a custom codec for the server
func WithServerCodec(c Codec) ServerOption {
	return func(s *Server) { s.codec = c }
}

// WithServerLogger sets the server logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// Listen creates a ZAP server on addr.
func Listen(addr string, opts ...ServerOption) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: listener,
		codec:    defaultCodec,
		logger:   slog.Default(),
		handlers: make(map[string]HandlerFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handle registers fn under method.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = fn
}

// Methods returns the sorted method names the server answers.
func (s *Server) Methods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := []string{listMethods, multicallMethod}
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Serve starts serving requests
func (s *Server) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	var writeMu sync.Mutex
	for {
		msg, err := readFrame(conn)
		if err != nil {
			return
		}
		if len(msg) < 7 || MessageType(msg[0]) != MsgRequest {
			continue
		}
		requestID := binary.BigEndian.Uint32(msg[1:5])
		methodLen := int(binary.BigEndian.Uint16(msg[5:7]))
		if len(msg) < 7+methodLen {
			continue
		}
		method := string(msg[7 : 7+methodLen])
		payload := msg[7+methodLen:]

		go func() {
			data, err := s.dispatch(ctx, method, payload)
			writeMu.Lock()
			defer writeMu.Unlock()
			s.sendResponse(conn, requestID, data, err)
		}()
	}
}

// dispatch decodes payload as the positional params of method.
func (s *Server) dispatch(ctx context.Context, method string, payload []byte) ([]byte, error) {
	var params []any
	if len(payload) > 0 {
		if err := s.codec.Decode(payload, &params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}

	if method != multicallMethod {
		v, err := s.invoke(ctx, method, params)
		if err != nil {
			return nil, err
		}
		return s.codec.Encode(v)
	}

	var calls []any
	if len(params) == 1 {
		calls, _ = params[0].([]any)
	}
	out := make([]any, len(calls))
	for i, c := range calls {
		m, _ := c.(map[string]any)
		name, _ := m["methodName"].(string)
		args, _ := m["params"].([]any)
		v, err := s.invoke(ctx, name, args)
		if err != nil {
			var f *FaultError
			if !errors.As(err, &f) {
				f = &FaultError{Code: FaultInternal, Message: err.Error()}
			}
			out[i] = faultToMap(f)
			continue
		}
		out[i] = []any{v}
	}
	return s.codec.Encode(out)
}

func (s *Server) invoke(ctx context.Context, method string, params []any) (any, error) {
	if method == listMethods {
		return s.Methods(), nil
	}
	s.mu.RLock()
	fn, ok := s.handlers[method]
	s.mu.RUnlock()
	if !ok {
		s.logger.Debug("unknown method", "method", method)
		return nil, &FaultError{Code: FaultMethodNotFound, Message: "method '" + method + "' not defined"}
	}
	return fn(ctx, params)
}

func (s *Server) sendResponse(conn net.Conn, requestID uint32, data []byte, err error) {
	msgType := MsgResponse
	payload := data
	if err != nil {
		msgType = MsgError
		payload = []byte(err.Error())
	}

	body := make([]byte, 1+4+len(payload))
	body[0] = byte(msgType)
	binary.BigEndian.PutUint32(body[1:5], requestID)
	copy(body[5:], payload)

	conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	if err := writeFrame(conn, body); err != nil {
		s.logger.Debug("zap write failed", "err", err)
	}
}

// Close closes the server
func (s *Server) Close() error {
	s.closed.Store(true)
	s.conns.Range(func(key, _ any) bool {
		key.(net.Conn).Close()
		return true
	})
	return s.listener.Close()
}

// Addr returns the server's listen address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

func writeFrame(w io.Writer, body []byte) error {
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(body)))
	copy(buf[4:], body)
	_, err := w.Write(buf)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header)
	if n == 0 || n > zapMaxFrame {
		return nil, ErrZAPInvalidResp
	}
	msg := make([]byte, n)
	if _, err := io.ReadFull(r, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
