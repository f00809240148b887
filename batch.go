// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"fmt"
)

const multicallMethod = "system.multicall"

// Fault codes used by Server.
const (
	FaultInternal       = -501
	FaultMethodNotFound = -506
)

// multicallParams turns a batch into the single system.multicall argument.
func multicallParams(batch []Request) []any {
	calls := make([]any, len(batch))
	for i, r := range batch {
		params := r.Params
		if params == nil {
			params = []any{}
		}
		calls[i] = map[string]any{"methodName": r.Method, "params": params}
	}
	return []any{calls}
}

// unwrapMulticall checks a system.multicall result: one single-element list
// per call, or a fault struct. Any fault fails the whole batch.
func unwrapMulticall(raw any, n int) ([]any, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: multicall result is %T", ErrMalformedResult, raw)
	}
	if len(list) != n {
		return nil, fmt.Errorf("%w: %d results for %d calls", ErrMalformedResult, len(list), n)
	}
	out := make([]any, n)
	for i, e := range list {
		switch v := e.(type) {
		case []any:
			if len(v) != 1 {
				return nil, fmt.Errorf("%w: call %d returned %d values", ErrMalformedResult, i, len(v))
			}
			out[i] = v[0]
		case map[string]any:
			return nil, faultFromMap(v)
		default:
			return nil, fmt.Errorf("%w: call %d returned %T", ErrMalformedResult, i, e)
		}
	}
	return out, nil
}

func faultFromMap(m map[string]any) error {
	f := &FaultError{Code: FaultInternal}
	if c, err := ToInt(m["faultCode"]); err == nil {
		f.Code = int(c.(int64))
	}
	if s, ok := m["faultString"].(string); ok {
		f.Message = s
	}
	return f
}

func faultToMap(f *FaultError) map[string]any {
	return map[string]any{"faultCode": f.Code, "faultString": f.Message}
}
