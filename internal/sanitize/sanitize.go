// Package sanitize rewrites arbitrary payload trees into the subset accepted
// by schema-constrained document stores.
//
// The output only contains null, bool, int, finite float, string, arrays and
// objects. An array is treated as a sequence of sequences when its first,
// middle and last items are all arrays; each inner array is then rewritten to
// an object keyed by index. Arrays whose sampled items are not all arrays keep
// any inner arrays, so [5,[1],[2]] passes through unchanged. Every rule maps
// its own output onto itself, so Value(Value(x)) equals Value(x).
package sanitize

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	"gluco_watch/internal/jsonval"
)

// DefaultMaxDepth is the nesting bound used by Default.
const DefaultMaxDepth = 100

// Default sanitizes with DefaultMaxDepth.
func Default(v jsonval.Value) jsonval.Value {
	return Value(v, DefaultMaxDepth)
}

// Value returns a sanitized copy of v. Nodes deeper than maxDepth (the root is
// depth 0) are replaced with null.
func Value(v jsonval.Value, maxDepth int) jsonval.Value {
	return walk(v, 0, maxDepth)
}

func walk(v jsonval.Value, depth, maxDepth int) jsonval.Value {
	if depth > maxDepth {
		return jsonval.NullValue()
	}

	switch v.Kind() {
	case jsonval.Null, jsonval.Bool, jsonval.Int, jsonval.String:
		return v
	case jsonval.Float:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return jsonval.NullValue()
		}
		return v
	case jsonval.Bytes:
		return jsonval.StringValue(base64.StdEncoding.EncodeToString(v.Bytes()))
	case jsonval.Object:
		members := v.Members()
		for i := range members {
			members[i].Value = walk(members[i].Value, depth+1, maxDepth)
		}
		return jsonval.ObjectValue(members...)
	case jsonval.Array:
		return walkArray(v, depth, maxDepth)
	case jsonval.Opaque:
		return stringify(v.Opaque())
	}
	return jsonval.NullValue()
}

func walkArray(v jsonval.Value, depth, maxDepth int) jsonval.Value {
	items := v.Items()
	nested := isNestedArray(items)
	for i, item := range items {
		if nested && item.Kind() == jsonval.Array {
			items[i] = indexObject(item, depth+1, maxDepth)
			continue
		}
		items[i] = walk(item, depth+1, maxDepth)
	}
	return jsonval.ArrayValue(items...)
}

// isNestedArray samples the first, middle and last items; the array counts as
// a sequence of sequences when all of them are arrays.
func isNestedArray(items []jsonval.Value) bool {
	if len(items) == 0 {
		return false
	}
	for _, i := range []int{0, len(items) / 2, len(items) - 1} {
		if items[i].Kind() != jsonval.Array {
			return false
		}
	}
	return true
}

// indexObject turns an inner array into {"0": a, "1": b, ...}.
func indexObject(inner jsonval.Value, depth, maxDepth int) jsonval.Value {
	if depth > maxDepth {
		return jsonval.NullValue()
	}
	items := inner.Items()
	members := make([]jsonval.Member, len(items))
	for i, item := range items {
		members[i] = jsonval.M(strconv.Itoa(i), walk(item, depth+1, maxDepth))
	}
	return jsonval.ObjectValue(members...)
}

func stringify(x any) (out jsonval.Value) {
	defer func() {
		if recover() != nil {
			out = jsonval.NullValue()
		}
	}()
	// fmt swallows panics from String methods, so call it directly.
	if s, ok := x.(fmt.Stringer); ok {
		return jsonval.StringValue(s.String())
	}
	return jsonval.StringValue(fmt.Sprint(x))
}
