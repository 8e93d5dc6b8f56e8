package jsonval

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// maxConvertDepth bounds FromGo on self-referencing Go values.
const maxConvertDepth = 512

var errTrailingData = errors.New("unexpected data after top-level value")

// Parse decodes a single JSON document, keeping object key order. Integral
// numbers that fit in int64 become Int, everything else Float. The bare
// tokens NaN, Infinity and -Infinity are accepted outside strings, and
// numbers beyond the float64 range become ±Inf.
func Parse(data []byte) (Value, error) {
	data, special := rewriteNonFinite(data)
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &parser{dec: dec, special: special}

	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errTrailingData
	}
	return v, nil
}

var nonFiniteTokens = []struct {
	lit string
	f   float64
}{
	{"-Infinity", math.Inf(-1)},
	{"Infinity", math.Inf(1)},
	{"NaN", math.NaN()},
}

// rewriteNonFinite replaces each non-finite token outside strings with a "0"
// padded to the same length, and returns the offsets where those zeros end.
// Offsets are unchanged, so the decoder's InputOffset identifies them.
func rewriteNonFinite(data []byte) ([]byte, map[int64]float64) {
	var (
		out      []byte
		special  map[int64]float64
		inString bool
		escaped  bool
	)
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c != '-' && c != 'I' && c != 'N' {
			continue
		}
		for _, tok := range nonFiniteTokens {
			if !bytes.HasPrefix(data[i:], []byte(tok.lit)) {
				continue
			}
			if out == nil {
				out = append([]byte(nil), data...)
				special = make(map[int64]float64)
			}
			out[i] = '0'
			for j := 1; j < len(tok.lit); j++ {
				out[i+j] = ' '
			}
			special[int64(i+1)] = tok.f
			i += len(tok.lit) - 1
			break
		}
	}
	if out == nil {
		return data, nil
	}
	return out, special
}

type parser struct {
	dec     *json.Decoder
	special map[int64]float64
}

func (p *parser) value() (Value, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		if f, ok := p.special[p.dec.InputOffset()]; ok {
			return FloatValue(f), nil
		}
		return numberValue(t)
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for p.dec.More() {
				item, err := p.value()
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := p.dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: Array, items: items}, nil
		case '{':
			var members []Member
			for p.dec.More() {
				keyTok, err := p.dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := p.value()
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Key: key, Value: val})
			}
			if _, err := p.dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return IntValue(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Overflow still yields ±Inf.
		if errors.Is(err, strconv.ErrRange) {
			return FloatValue(f), nil
		}
		return Value{}, fmt.Errorf("parse number %q: %w", s, err)
	}
	return FloatValue(f), nil
}

// MarshalJSON encodes the value with object keys in insertion order. Bytes are
// base64 encoded and opaque values are rendered with fmt. Non-finite floats
// are rejected, the same way encoding/json rejects them.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Int:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case Float:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return &json.UnsupportedValueError{Str: strconv.FormatFloat(v.f, 'g', -1, 64)}
		}
		b, _ := json.Marshal(v.f)
		buf.Write(b)
	case String:
		writeString(buf, v.s)
	case Bytes:
		writeString(buf, base64.StdEncoding.EncodeToString(v.raw))
	case Opaque:
		writeString(buf, fmt.Sprint(v.opaque))
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("jsonval: cannot encode %s", v.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

// UnmarshalJSON lets Value be used directly as a json.Unmarshal target.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromGo converts an arbitrary Go value. Map keys of any kind are rendered
// with fmt and sorted, so the result is deterministic. Values with no JSON
// counterpart (structs, channels, funcs) become Opaque.
func FromGo(x any) Value {
	return fromGo(reflect.ValueOf(x), 0)
}

func fromGo(rv reflect.Value, depth int) Value {
	if depth > maxConvertDepth || !rv.IsValid() {
		return NullValue()
	}
	if rv.CanInterface() {
		switch t := rv.Interface().(type) {
		case Value:
			return t
		case json.Number:
			if v, err := numberValue(t); err == nil {
				return v
			}
			return StringValue(t.String())
		case []byte:
			return BytesValue(t)
		}
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return NullValue()
		}
		return fromGo(rv.Elem(), depth+1)
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return FloatValue(float64(u))
		}
		return IntValue(int64(u))
	case reflect.Float32, reflect.Float64:
		return FloatValue(rv.Float())
	case reflect.String:
		return StringValue(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return NullValue()
		}
		fallthrough
	case reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			items[i] = fromGo(rv.Index(i), depth+1)
		}
		return Value{kind: Array, items: items}
	case reflect.Map:
		if rv.IsNil() {
			return NullValue()
		}
		members := make([]Member, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			members = append(members, Member{
				Key:   fmt.Sprint(iter.Key().Interface()),
				Value: fromGo(iter.Value(), depth+1),
			})
		}
		sort.SliceStable(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		return ObjectValue(members...)
	}
	if rv.CanInterface() {
		return OpaqueValue(rv.Interface())
	}
	return NullValue()
}
