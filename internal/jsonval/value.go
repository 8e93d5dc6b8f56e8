// Package jsonval is a tagged representation of JSON-like trees.
//
// Vendor payloads have no fixed shape, so they are decoded into Value instead of
// map[string]any. Every consumer switches on Kind, which keeps recursive
// transforms exhaustive.
package jsonval

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Bytes
	Array
	Object
	// Opaque holds a Go value with no JSON equivalent (for example a struct
	// handed to FromGo). It is never produced by Parse.
	Opaque
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "bytes", "array", "object", "opaque"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Member is one key/value pair of an object. Objects keep insertion order.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable JSON-like node. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	i       int64
	f       float64
	s       string
	raw     []byte
	items   []Value
	members []Member
	opaque  any
}

func NullValue() Value { return Value{} }
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }
func IntValue(i int64) Value { return Value{kind: Int, i: i} }
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }
func StringValue(s string) Value { return Value{kind: String, s: s} }
func BytesValue(b []byte) Value { return Value{kind: Bytes, raw: append([]byte(nil), b...)} }
func ArrayValue(items ...Value) Value {
	return Value{kind: Array, items: append([]Value(nil), items...)}
}

// ObjectValue builds an object. A repeated key replaces the earlier value but
// keeps the earlier position.
func ObjectValue(members ...Member) Value {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if i := indexOf(out, m.Key); i >= 0 {
			out[i].Value = m.Value
			continue
		}
		out = append(out, m)
	}
	return Value{kind: Object, members: out}
}

// OpaqueValue wraps an arbitrary Go value.
func OpaqueValue(v any) Value { return Value{kind: Opaque, opaque: v} }

// M is shorthand for a Member literal.
func M(key string, v Value) Member { return Member{Key: key, Value: v} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }
func (v Value) Bool() bool { return v.b }
func (v Value) Int() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Str() string { return v.s }
func (v Value) Opaque() any { return v.opaque }

// Bytes returns a copy of the binary payload.
func (v Value) Bytes() []byte { return append([]byte(nil), v.raw...) }

// Len is the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Index returns the i-th array item, or null when out of range.
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.items) {
		return Value{}
	}
	return v.items[i]
}

// Items returns a copy of the array items.
func (v Value) Items() []Value { return append([]Value(nil), v.items...) }

// Members returns a copy of the object members in order.
func (v Value) Members() []Member { return append([]Member(nil), v.members...) }

// Keys lists object keys in order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.members))
	for _, m := range v.members {
		keys = append(keys, m.Key)
	}
	return keys
}

// Get looks up an object member.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	if i := indexOf(v.members, key); i >= 0 {
		return v.members[i].Value, true
	}
	return Value{}, false
}

// Path follows a chain of object keys.
func (v Value) Path(keys ...string) (Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Number reports the numeric value of an Int or Float.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal compares two values structurally. NaN floats compare equal to each
// other so that trees holding them can still be compared in tests.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Float:
		if math.IsNaN(a.f) && math.IsNaN(b.f) {
			return true
		}
		return a.f == b.f
	case String:
		return a.s == b.s
	case Bytes:
		return string(a.raw) == string(b.raw)
	case Array:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	case Opaque:
		return fmt.Sprint(a.opaque) == fmt.Sprint(b.opaque)
	}
	return false
}

func indexOf(members []Member, key string) int {
	for i, m := range members {
		if m.Key == key {
			return i
		}
	}
	return -1
}
