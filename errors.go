// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMethod     = errors.New("rtrpc: unknown method")
	ErrUnavailableMethod = errors.New("rtrpc: method unavailable")
	ErrNotRetriever      = errors.New("rtrpc: modifier method not allowed")
	ErrTransport         = errors.New("rtrpc: transport failure")
	ErrMalformedResult   = errors.New("rtrpc: malformed result")
	ErrCallerUsed        = errors.New("rtrpc: caller already executed")
	ErrBuilderUsed       = errors.New("rtrpc: multicall builder already executed")
	ErrClosed            = errors.New("rtrpc: transport closed")
)

// UnknownMethodError reports a key missing from a class registry.
type UnknownMethodError struct {
	Class string
	Key   string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("rtrpc: no method with key %q found on %s", e.Key, e.Class)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }

// UnknownComponentError is returned by Class.RegisterPseudo when one of the
// component keys is not a registered method.
type UnknownComponentError struct {
	Pseudo string
	Err    *UnknownMethodError
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("rtrpc: pseudo method %q: component %q not registered on %s", e.Pseudo, e.Err.Key, e.Err.Class)
}

func (e *UnknownComponentError) Unwrap() error { return e.Err }

// UnavailableMethodError means none of a method's candidate names is
// supported by the connected server.
type UnavailableMethodError struct {
	Key        string
	Candidates []string
}

func (e *UnavailableMethodError) Error() string {
	return fmt.Sprintf("rtrpc: method with key %q is unavailable (tried %v)", e.Key, e.Candidates)
}

func (e *UnavailableMethodError) Is(target error) bool { return target == ErrUnavailableMethod }

// NotRetrieverError is returned when a modifier is selected into a multicall.
type NotRetrieverError struct {
	Key string
}

func (e *NotRetrieverError) Error() string {
	return fmt.Sprintf("rtrpc: modifier method with key %q is not allowed in a multicall", e.Key)
}

func (e *NotRetrieverError) Is(target error) bool { return target == ErrNotRetriever }

// TransportError wraps any failure of the underlying exchange, including
// result sets that do not match the calls that were sent.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("rtrpc: transport: %v", e.Err)
	}
	return fmt.Sprintf("rtrpc: transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// FaultError is a fault returned by the remote server.
type FaultError struct {
	Code    int
	Message string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault %d: %s", e.Code, e.Message)
}

func transportErr(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
