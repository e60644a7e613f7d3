package zoon

import (
	"bytes"
	"errors"
	"testing"
)

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	input := map[string]any{
		"name":   "Alice",
		"age":    int64(30),
		"active": true,
		"tags":   []any{"a", "b"},
	}
	data, err := Marshal(input)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", out)
	}
	if m["name"] != "Alice" || m["age"] != int64(30) || m["active"] != true {
		t.Errorf("unexpected roundtrip result: %+v", m)
	}
}

func TestFromAnyUnsupportedType(t *testing.T) {
	_, err := FromAny(struct{ X int }{X: 1})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFromAnyIntWidths(t *testing.T) {
	cases := []any{int(1), int8(1), int16(1), int32(1), int64(1), uint(1), uint32(1), uint64(1)}
	for _, c := range cases {
		v, err := FromAny(c)
		if err != nil {
			t.Fatalf("FromAny(%v) failed: %v", c, err)
		}
		if v.Kind != KindInt || v.Int != 1 {
			t.Errorf("FromAny(%v) = %v, want Int(1)", c, v)
		}
	}
}

func TestToAnyAllKinds(t *testing.T) {
	m := NewMap()
	m.Set("k", StringValue("v"))
	cases := []struct {
		v    Value
		want any
	}{
		{Null, nil},
		{BoolValue(true), true},
		{IntValue(5), int64(5)},
		{FloatValue(1.5), 1.5},
		{StringValue("s"), "s"},
		{ListValue([]Value{IntValue(1)}), []any{int64(1)}},
	}
	for _, c := range cases {
		got := ToAny(c.v)
		switch want := c.want.(type) {
		case []any:
			gotList, ok := got.([]any)
			if !ok || len(gotList) != len(want) {
				t.Errorf("ToAny(%v) = %v, want %v", c.v, got, want)
			}
		default:
			if got != c.want {
				t.Errorf("ToAny(%v) = %v, want %v", c.v, got, c.want)
			}
		}
	}
	mapVal := MapValue(m)
	got := ToAny(mapVal).(map[string]any)
	if got["k"] != "v" {
		t.Errorf("ToAny(map) = %v", got)
	}
}

func TestWriterAndReader(t *testing.T) {
	var buf bytes.Buffer
	v := MapValue(mustMap("name", StringValue("Alice")))
	if err := NewWriter(&buf).Write(v); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := NewReader(&buf).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !got.Equal(v) {
		t.Errorf("expected %v, got %v", v, got)
	}
}

func TestWriterWithOptions(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultEncodeOptions()
	opts.TextThreshold = 1
	w := NewWriter(&buf).WithOptions(opts)
	rows := ListValue([]Value{
		MapValue(mustMap("id", IntValue(1), "body", StringValue("a fairly short value"))),
		MapValue(mustMap("id", IntValue(2), "body", StringValue("another short one"))),
	})
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("body:t")) {
		t.Errorf("expected TextThreshold=1 to force a text column, got:\n%s", buf.String())
	}
}
