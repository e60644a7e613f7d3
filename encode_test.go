package zoon

import (
	"strconv"
	"strings"
	"testing"
)

func mustMap(pairs ...any) *Map {
	m := NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return m
}

func TestEncodeTabularAutoIncrementAndEnum(t *testing.T) {
	rows := ListValue([]Value{
		MapValue(mustMap("id", IntValue(1), "name", StringValue("Alice"), "role", StringValue("admin"))),
		MapValue(mustMap("id", IntValue(2), "name", StringValue("Bob"), "role", StringValue("user"))),
		MapValue(mustMap("id", IntValue(3), "name", StringValue("Carol"), "role", StringValue("user"))),
		MapValue(mustMap("id", IntValue(4), "name", StringValue("Dave"), "role", StringValue("user"))),
	})
	out := Encode(rows)
	if !strings.Contains(out, "id:i+") {
		t.Errorf("expected id:i+ column, got:\n%s", out)
	}
	if !strings.Contains(out, "role!admin|user") && !strings.Contains(out, "role=admin|user") {
		t.Errorf("expected role enum column, got:\n%s", out)
	}
	decoded := Decode(out)
	if !decoded.Equal(rows) {
		t.Errorf("round-trip mismatch:\nwant %v\ngot %v", rows, decoded)
	}
}

func TestEncodeBooleanColumn(t *testing.T) {
	rows := ListValue([]Value{
		MapValue(mustMap("name", StringValue("Alice"), "active", BoolValue(true))),
		MapValue(mustMap("name", StringValue("Bob"), "active", BoolValue(false))),
	})
	out := Encode(rows)
	if !strings.Contains(out, "active:b") {
		t.Errorf("expected active:b column, got:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	firstBody := lines[len(lines)-2]
	if !strings.HasPrefix(firstBody, "Alice 1") {
		t.Errorf("expected first body line to begin with %q, got %q", "Alice 1", firstBody)
	}
	if !Decode(out).Equal(rows) {
		t.Errorf("round-trip mismatch for %s", out)
	}
}

func TestEncodeConstantHoisting(t *testing.T) {
	rows := ListValue([]Value{
		MapValue(mustMap("status", StringValue("ok"), "id", IntValue(1), "region", StringValue("us-east-1"))),
		MapValue(mustMap("status", StringValue("ok"), "id", IntValue(2), "region", StringValue("us-east-1"))),
		MapValue(mustMap("status", StringValue("ok"), "id", IntValue(3), "region", StringValue("us-east-1"))),
	})
	out := Encode(rows)
	if !strings.Contains(out, "@status=ok") {
		t.Errorf("expected @status=ok constant, got:\n%s", out)
	}
	if !strings.Contains(out, "@region=us-east-1") {
		t.Errorf("expected @region=us-east-1 constant, got:\n%s", out)
	}
	if !Decode(out).Equal(rows) {
		t.Errorf("round-trip mismatch for %s", out)
	}
}

func TestEncodeNestedAliasing(t *testing.T) {
	mkInfra := func(pgStatus, redisStatus string) Value {
		pg := mustMap("status", StringValue(pgStatus))
		redis := mustMap("status", StringValue(redisStatus))
		infra := mustMap("postgres", MapValue(pg), "redis", MapValue(redis))
		return MapValue(mustMap("infrastructure", MapValue(infra)))
	}
	rows := ListValue([]Value{mkInfra("up", "up"), mkInfra("down", "down")})
	out := Encode(rows)
	if !strings.Contains(out, aliasSigil) {
		t.Errorf("expected an alias definition line, got:\n%s", out)
	}
	if !Decode(out).Equal(rows) {
		t.Errorf("round-trip mismatch for %s", out)
	}
}

func TestEncodeInlineMap(t *testing.T) {
	v := MapValue(mustMap("name", StringValue("Alice"), "age", IntValue(30), "active", BoolValue(true)))
	out := Encode(v)
	if !strings.Contains(out, "name=Alice") {
		t.Errorf("expected name=Alice, got %q", out)
	}
	if !strings.Contains(out, "age:30") {
		t.Errorf("expected age:30, got %q", out)
	}
	if !strings.Contains(out, "active:y") {
		t.Errorf("expected active:y, got %q", out)
	}
	if !Decode(out).Equal(v) {
		t.Errorf("round-trip mismatch for %q", out)
	}
}

func TestEncodeSimpleListAndScalar(t *testing.T) {
	list := ListValue([]Value{IntValue(1), StringValue("two words"), Null, BoolValue(true)})
	out := Encode(list)
	if out != "[1,two_words,~,y]" {
		t.Errorf("unexpected simple-list encoding: %q", out)
	}
	if !Decode(out).Equal(list) {
		t.Errorf("round-trip mismatch for %q", out)
	}
	if got := Encode(StringValue("two words")); got != "two_words" {
		t.Errorf("unexpected scalar encoding: %q", got)
	}
}

func TestEncodeEmptyList(t *testing.T) {
	if got := Encode(ListValue(nil)); got != "" {
		t.Errorf("expected empty string for empty list, got %q", got)
	}
}

func TestEncodeTextUpgrade(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 2)
	rows := ListValue([]Value{
		MapValue(mustMap("id", IntValue(1), "body", StringValue(long))),
		MapValue(mustMap("id", IntValue(2), "body", StringValue(long+"x"))),
	})
	out := Encode(rows)
	if !strings.Contains(out, "body:t") {
		t.Errorf("expected body:t text column, got:\n%s", out)
	}
	if !Decode(out).Equal(rows) {
		t.Errorf("round-trip mismatch for text column:\n%s", out)
	}
}

func TestEncodeTextIdempotenceWithEmbeddedQuote(t *testing.T) {
	long := strings.Repeat("a quoted \"value\" that is long enough ", 2)
	rows := ListValue([]Value{
		MapValue(mustMap("id", IntValue(1), "body", StringValue(long))),
		MapValue(mustMap("id", IntValue(2), "body", StringValue(long+"more"))),
	})
	out1 := Encode(rows)
	decoded := Decode(out1)
	out2 := Encode(decoded)
	if !Decode(out2).Equal(decoded) {
		t.Errorf("text form not idempotent across re-encode:\n%s\n---\n%s", out1, out2)
	}
}

func TestEncodeCompressionRatio(t *testing.T) {
	var rows []Value
	for i := 1; i <= 10; i++ {
		rows = append(rows, MapValue(mustMap(
			"id", IntValue(int64(i)),
			"name", StringValue("User "+strconv.Itoa(i)),
			"status", StringValue("active"),
			"level", IntValue(1),
		)))
	}
	v := ListValue(rows)
	zoonOut := Encode(v)
	jsonOut := jsonMin(v)
	if len(zoonOut) >= len(jsonOut) {
		t.Fatalf("expected zoon encoding shorter than json, zoon=%d json=%d", len(zoonOut), len(jsonOut))
	}
	reduction := 1.0 - float64(len(zoonOut))/float64(len(jsonOut))
	if reduction <= 0.30 {
		t.Errorf("expected >30%% size reduction, got %.1f%% (zoon=%d json=%d)", reduction*100, len(zoonOut), len(jsonOut))
	}
}

func TestEncodeSpaceUnderscoreLossiness(t *testing.T) {
	v := MapValue(mustMap("label", StringValue("has_underscore already")))
	out := Encode(v)
	decoded := Decode(out)
	if decoded.Equal(v) {
		t.Errorf("expected the underscore to decode back as a space, got %v", decoded)
	}
}

func TestEncodeWithOptionsCustomThresholds(t *testing.T) {
	rows := ListValue([]Value{
		MapValue(mustMap("id", IntValue(1), "tag", StringValue("red"))),
		MapValue(mustMap("id", IntValue(2), "tag", StringValue("blue"))),
		MapValue(mustMap("id", IntValue(3), "tag", StringValue("green"))),
	})
	opts := DefaultEncodeOptions()
	opts.EnumMaxUnique = 1
	out := EncodeWithOptions(rows, opts)
	if strings.Contains(out, "tag!") || strings.Contains(out, "tag=red") {
		t.Errorf("expected enum detection suppressed by EnumMaxUnique=1, got:\n%s", out)
	}
	if !Decode(out).Equal(rows) {
		t.Errorf("round-trip mismatch for %s", out)
	}
}

// jsonMin renders a minimal JSON encoding of v for the compression-ratio
// comparison in spec.md §8 invariant 6, without taking encoding/json as
// a dependency of the codec itself.
func jsonMin(v Value) string {
	var b strings.Builder
	writeJSONMin(&b, v)
	return b.String()
}

func writeJSONMin(b *strings.Builder, v Value) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(canonicalNumber(v))
	case KindFloat:
		b.WriteString(canonicalNumber(v))
	case KindString:
		b.WriteByte('"')
		b.WriteString(v.Str)
		b.WriteByte('"')
	case KindList:
		b.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONMin(b, item)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, k := range v.Map.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			mv, _ := v.Map.Get(k)
			b.WriteByte('"')
			b.WriteString(k)
			b.WriteString(`":`)
			writeJSONMin(b, mv)
		}
		b.WriteByte('}')
	}
}
