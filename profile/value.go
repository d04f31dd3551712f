// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a single node of a provider document.  The zero Value is null.
// Values are immutable once built.
type Value struct {
	kind Kind
	b    bool
	num  json.Number
	str  string
	arr  []Value

	// keys holds the object member names in document order.
	keys []string
	obj  map[string]Value
}

// Member is a single object member used to build an object Value.
type Member struct {
	Key   string
	Value Value
}

// NullValue returns a null Value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue returns a number Value holding the literal n.
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// ArrayValue returns an array Value of the elements in order.
func ArrayValue(elems ...Value) Value {
	arr := make([]Value, len(elems))
	copy(arr, elems)
	return Value{kind: KindArray, arr: arr}
}

// ObjectValue returns an object Value with the members in order.  When a key
// repeats, the later value wins and the key keeps its first position.
func ObjectValue(members ...Member) Value {
	v := Value{kind: KindObject, obj: make(map[string]Value, len(members))}
	for _, m := range members {
		v.set(m.Key, m.Value)
	}
	return v
}

func (v *Value) set(key string, val Value) {
	if _, ok := v.obj[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.obj[key] = val
}

// Kind returns the type tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by the value.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number literal held by the value.
func (v Value) AsNumber() (json.Number, bool) { return v.num, v.kind == KindNumber }

// AsString returns the string held by the value.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// Len returns the number of elements of an array or members of an object, and
// zero for everything else.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.keys)
	default:
		return 0
	}
}

// Elements returns a copy of the elements of an array value.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	out := make([]Value, len(v.arr))
	copy(out, v.arr)
	return out
}

// Keys returns the member names of an object value in document order.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// Field returns the member named key of an object value.
func (v Value) Field(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.obj[key]
	return f, ok
}

// Lookup resolves a dotted path such as "data.emails.0.address".  Numeric
// segments index arrays.  Use Get when a member name itself contains a dot.
func (v Value) Lookup(path string) (Value, error) {
	const op = "profile.(Value).Lookup"
	if path == "" {
		return Value{}, fmt.Errorf("%s: path is empty: %w", op, ErrInvalidPath)
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return Value{}, fmt.Errorf("%s: path %q has an empty segment: %w", op, path, ErrInvalidPath)
		}
	}
	got, err := v.Get(segs...)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", op, err)
	}
	return got, nil
}

// Get resolves the path given as individual segments.  Calling Get with no
// segments returns v.
func (v Value) Get(keys ...string) (Value, error) {
	const op = "profile.(Value).Get"
	cur := v
	for i, k := range keys {
		at := strings.Join(keys[:i+1], ".")
		switch cur.kind {
		case KindObject:
			next, ok := cur.obj[k]
			if !ok {
				return Value{}, fmt.Errorf("%s: %q: %w", op, at, ErrNotFound)
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(k)
			if err != nil || idx < 0 {
				return Value{}, fmt.Errorf("%s: %q: %q is not an array index: %w", op, at, k, ErrTypeMismatch)
			}
			if idx >= len(cur.arr) {
				return Value{}, fmt.Errorf("%s: %q: index %d out of range: %w", op, at, idx, ErrNotFound)
			}
			cur = cur.arr[idx]
		default:
			return Value{}, fmt.Errorf("%s: %q: cannot descend into %s: %w", op, at, cur.kind, ErrTypeMismatch)
		}
	}
	return cur, nil
}

// Text returns the string form of the value.  Strings are returned as is,
// numbers as their literal, booleans as "true" or "false", and arrays and
// objects as compact JSON.  Null has no string form.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return v.num.String(), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindArray, KindObject:
		b, err := v.MarshalJSON()
		if err != nil {
			return "", false
		}
		return string(b), true
	default:
		return "", false
	}
}

// MarshalJSON encodes the value as compact JSON, keeping object member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if v.num == "" {
			buf.WriteString("0")
			return nil
		}
		buf.WriteString(v.num.String())
	case KindString:
		return encodeString(buf, v.str)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.obj[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode %s: %w", v.kind, ErrUnsupportedType)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
