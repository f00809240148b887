// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ToInt converts integers, floats, json.Number and decimal strings to int64.
func ToInt(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return nil, malformed("int", v)
		}
		return int64(x), nil
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return nil, malformed("int", v)
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return nil, malformed("int", v)
		}
		return n, nil
	}
	return nil, malformed("int", v)
}

// ToFloat converts numeric values and numeric strings to float64.
func ToFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, malformed("float", v)
		}
		return f, nil
	}
	n, err := ToInt(v)
	if err != nil {
		return nil, malformed("float", v)
	}
	return float64(n.(int64)), nil
}

// ToBool treats any non-zero integer as true. rtorrent reports flags as 0/1.
func ToBool(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	n, err := ToInt(v)
	if err != nil {
		return nil, malformed("bool", v)
	}
	return n.(int64) != 0, nil
}

// ToString accepts strings and byte slices.
func ToString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return nil, malformed("string", v)
}

// ToStrings converts a list of strings.
func ToStrings(v any) (any, error) {
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, err := ToString(e)
			if err != nil {
				return nil, malformed("[]string", v)
			}
			out[i] = s.(string)
		}
		return out, nil
	}
	return nil, malformed("[]string", v)
}

// ToTime converts unix seconds to a UTC time.Time.
func ToTime(v any) (any, error) {
	n, err := ToInt(v)
	if err != nil {
		return nil, malformed("time", v)
	}
	return time.Unix(n.(int64), 0).UTC(), nil
}

// DivideBy returns a post-processor that scales a number down by d.
func DivideBy(d float64) PostProcessor {
	return func(v any) (any, error) {
		f, err := ToFloat(v)
		if err != nil {
			return nil, err
		}
		return f.(float64) / d, nil
	}
}

// PrependArgs returns an encoder that inserts fixed leading arguments,
// such as rtorrent's empty target string.
func PrependArgs(lead ...any) ArgEncoder {
	return func(args []any) ([]any, error) {
		out := make([]any, 0, len(lead)+len(args))
		out = append(out, lead...)
		return append(out, args...), nil
	}
}

// EncodeBool rewrites bool arguments as 1/0.
func EncodeBool(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		if b, ok := a.(bool); ok {
			if b {
				out[i] = 1
			} else {
				out[i] = 0
			}
			continue
		}
		out[i] = a
	}
	return out, nil
}

func malformed(want string, v any) error {
	return fmt.Errorf("%w: cannot convert %T to %s", ErrMalformedResult, v, want)
}
