package sanitize

import (
	"math"
	"testing"
	"time"

	"gluco_watch/internal/jsonval"
)

func mustParse(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return v
}

func encode(t *testing.T, v jsonval.Value) string {
	t.Helper()
	b, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

type panicky struct{}

func (panicky) String() string { panic("no string for you") }

func TestDefault_Cases(t *testing.T) {
	cases := []struct {
		name string
		in   jsonval.Value
		want string
	}{
		{"nan", jsonval.FloatValue(math.NaN()), `null`},
		{"inf", jsonval.FloatValue(math.Inf(1)), `null`},
		{"neg inf in object", jsonval.ObjectValue(jsonval.M("x", jsonval.FloatValue(math.Inf(-1)))), `{"x":null}`},
		{"finite float", jsonval.FloatValue(6.1), `6.1`},
		{"int", jsonval.IntValue(42), `42`},
		{"string", jsonval.StringValue("mmol"), `"mmol"`},
		{"bool", jsonval.BoolValue(true), `true`},
		{"null", jsonval.NullValue(), `null`},
		{"bytes", jsonval.BytesValue([]byte{0, 1, 2}), `"AAEC"`},
		{"nested arrays", mustParse(t, `[[1,2],[3,4]]`), `[{"0":1,"1":2},{"0":3,"1":4}]`},
		{"flat array", mustParse(t, `[1,[2],3]`), `[1,[2],3]`},
		{"first item scalar keeps inner arrays", mustParse(t, `[5,[1],[2]]`), `[5,[1],[2]]`},
		{"mixed sampled nested", mustParse(t, `[[1],5,[2],[3]]`), `[{"0":1},5,{"0":2},{"0":3}]`},
		{"triple nesting", mustParse(t, `[[[1,2]]]`), `[{"0":[1,2]}]`},
		{"empty array", mustParse(t, `[]`), `[]`},
		{"opaque stringer", jsonval.OpaqueValue(90 * time.Second), `"1m30s"`},
		{"opaque struct", jsonval.OpaqueValue(struct{ A int }{7}), `"{7}"`},
		{"panicking stringer", jsonval.OpaqueValue(panicky{}), `null`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := encode(t, Default(tc.in)); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDefault_VendorChartShape(t *testing.T) {
	in := mustParse(t, `{"data":{"chart":{"sg":[[100,5.55,0],[200,6.1,1]]},"flags":[]},"error":0}`)
	want := `{"data":{"chart":{"sg":[{"0":100,"1":5.55,"2":0},{"0":200,"1":6.1,"2":1}]},"flags":[]},"error":0}`
	if got := encode(t, Default(in)); got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestFromGoMapKeysBecomeStrings(t *testing.T) {
	in := jsonval.FromGo(map[int]any{1: "a", 2: []any{[]int{1}, []int{2}}})
	want := `{"1":"a","2":[{"0":1},{"0":2}]}`
	if got := encode(t, Default(in)); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func nest(depth int) jsonval.Value {
	v := jsonval.IntValue(1)
	for i := 0; i < depth; i++ {
		v = jsonval.ObjectValue(jsonval.M("n", v))
	}
	return v
}

func TestValue_DepthBound(t *testing.T) {
	// Leaf sits at depth 3: root(0) -> n(1) -> n(2) -> 1(3).
	v := nest(3)
	if got := encode(t, Value(v, 3)); got != `{"n":{"n":{"n":1}}}` {
		t.Errorf("within bound: got %s", got)
	}
	if got := encode(t, Value(v, 2)); got != `{"n":{"n":{"n":null}}}` {
		t.Errorf("beyond bound: got %s", got)
	}
	if got := encode(t, Value(jsonval.IntValue(1), -1)); got != `null` {
		t.Errorf("negative bound: got %s", got)
	}
}

func TestDefault_VeryDeepInputDoesNotPanic(t *testing.T) {
	out := Default(nest(5000))
	if _, err := out.MarshalJSON(); err != nil {
		t.Fatalf("sanitized output must encode: %v", err)
	}
}

func TestDefault_Idempotent(t *testing.T) {
	inputs := []jsonval.Value{
		mustParse(t, `[[1,2],[3,4]]`),
		mustParse(t, `[5,[1],[2]]`),
		mustParse(t, `[[[1,[2,[3]]]],[[4]]]`),
		mustParse(t, `{"a":[[1],2,[3]],"b":{"c":[[],[]]}}`),
		jsonval.ArrayValue(jsonval.FloatValue(math.NaN()), jsonval.BytesValue([]byte("x")), jsonval.OpaqueValue(time.Minute)),
		jsonval.FromGo(map[any]any{1.5: []any{[]any{math.Inf(1)}, []any{}}}),
		nest(150),
	}
	for i, in := range inputs {
		once := Default(in)
		twice := Default(once)
		if !jsonval.Equal(once, twice) {
			t.Errorf("input %d not idempotent:\n once  %s\n twice %s", i, encode(t, once), encode(t, twice))
		}
	}
}

func TestDefault_OutputAlphabet(t *testing.T) {
	in := jsonval.FromGo(map[string]any{
		"raw": []byte("abc"),
		"f":   []float64{math.NaN(), 1.25},
		"t":   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"m":   [][]string{{"a"}, {"b"}},
	})
	var check func(v jsonval.Value)
	check = func(v jsonval.Value) {
		switch v.Kind() {
		case jsonval.Bytes, jsonval.Opaque:
			t.Fatalf("kind %s must not survive sanitizing", v.Kind())
		case jsonval.Float:
			if math.IsNaN(v.Float()) || math.IsInf(v.Float(), 0) {
				t.Fatalf("non-finite float survived")
			}
		case jsonval.Array:
			if isNestedArray(v.Items()) {
				t.Fatalf("nested array survived: %s", encode(t, v))
			}
			for _, item := range v.Items() {
				check(item)
			}
		case jsonval.Object:
			for _, m := range v.Members() {
				check(m.Value)
			}
		}
	}
	check(Default(in))
}
