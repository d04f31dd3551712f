// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// MaxDepth is the deepest nesting of arrays and objects Parse accepts.
const MaxDepth = 256

// Parse parses data as a single JSON document.  Anything other than
// whitespace after the document is an error.  All parse failures wrap
// ErrMalformed.
func Parse(data []byte) (Value, error) {
	const op = "profile.Parse"
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseValue(dec, 0)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %v: %w", op, err, ErrMalformed)
	}
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return Value{}, fmt.Errorf("%s: trailing data: %v: %w", op, err, ErrMalformed)
		}
		return Value{}, fmt.Errorf("%s: trailing data starting with %v: %w", op, tok, ErrMalformed)
	}
	return v, nil
}

func parseValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := nextToken(dec)
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, fmt.Errorf("nesting exceeds maximum depth of %d", MaxDepth)
		}
		switch t {
		case '{':
			v := Value{kind: KindObject, obj: map[string]Value{}}
			for dec.More() {
				kt, err := nextToken(dec)
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key %v is not a string", kt)
				}
				member, err := parseValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				v.set(key, member)
			}
			if err := closeDelim(dec, '}'); err != nil {
				return Value{}, err
			}
			return v, nil
		case '[':
			v := Value{kind: KindArray, arr: []Value{}}
			for dec.More() {
				e, err := parseValue(dec, depth+1)
				if err != nil {
					return Value{}, err
				}
				v.arr = append(v.arr, e)
			}
			if err := closeDelim(dec, ']'); err != nil {
				return Value{}, err
			}
			return v, nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case nil:
		return NullValue(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func nextToken(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func closeDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := nextToken(dec)
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q but got %v", rune(want), tok)
	}
	return nil
}

// FromInterface converts a decoded Go value (the shape produced by
// encoding/json or golang.org/x/oauth2 token extras) into a Value.  Map keys
// are sorted, which makes the conversion deterministic.
func FromInterface(in interface{}) (Value, error) {
	const op = "profile.FromInterface"
	v, err := fromInterface(in, 0)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func fromInterface(in interface{}, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, fmt.Errorf("nesting exceeds maximum depth of %d: %w", MaxDepth, ErrUnsupportedType)
	}
	switch t := in.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case float64:
		return floatValue(t)
	case float32:
		return floatValue(float64(t))
	case int:
		return NumberValue(json.Number(strconv.FormatInt(int64(t), 10))), nil
	case int32:
		return NumberValue(json.Number(strconv.FormatInt(int64(t), 10))), nil
	case int64:
		return NumberValue(json.Number(strconv.FormatInt(t, 10))), nil
	case uint:
		return NumberValue(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint32:
		return NumberValue(json.Number(strconv.FormatUint(uint64(t), 10))), nil
	case uint64:
		return NumberValue(json.Number(strconv.FormatUint(t, 10))), nil
	case []string:
		elems := make([]Value, 0, len(t))
		for _, s := range t {
			elems = append(elems, StringValue(s))
		}
		return Value{kind: KindArray, arr: elems}, nil
	case []interface{}:
		elems := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := fromInterface(e, depth+1)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, ev)
		}
		return Value{kind: KindArray, arr: elems}, nil
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		v := Value{kind: KindObject, obj: make(map[string]Value, len(t))}
		for _, k := range keys {
			v.set(k, StringValue(t[k]))
		}
		return v, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		v := Value{kind: KindObject, obj: make(map[string]Value, len(t))}
		for _, k := range keys {
			mv, err := fromInterface(t[k], depth+1)
			if err != nil {
				return Value{}, fmt.Errorf("member %q: %w", k, err)
			}
			v.set(k, mv)
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("%s: %w", reflect.TypeOf(in), ErrUnsupportedType)
	}
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("number %v: %w", f, ErrUnsupportedType)
	}
	return NumberValue(json.Number(strconv.FormatFloat(f, 'f', -1, 64))), nil
}
