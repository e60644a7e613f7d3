package zoon

import "testing"

// TestRoundtripTabularAcrossValueKinds exercises spec.md §8 invariant 1:
// decode(encode(D)) ≡ D for tabular data spanning every non-string leaf
// kind plus underscore-free strings, and for inline maps and simple
// lists. A top-level scalar is encoded in the simple-list element form,
// so it decodes back through the simple-list path.
func TestRoundtripTabularAcrossValueKinds(t *testing.T) {
	docs := []Value{
		ListValue([]Value{
			MapValue(mustMap("a", IntValue(1), "b", FloatValue(2.5), "c", BoolValue(true), "d", Null, "e", StringValue("plain"))),
			MapValue(mustMap("a", IntValue(2), "b", FloatValue(3.5), "c", BoolValue(false), "d", StringValue("x"), "e", StringValue("other"))),
		}),
		ListValue([]Value{
			MapValue(mustMap("only", StringValue("single row"))),
		}),
		MapValue(mustMap("scalar", IntValue(7))),
		ListValue([]Value{IntValue(1), StringValue("two"), BoolValue(true), Null}),
	}
	for i, doc := range docs {
		out := Encode(doc)
		got := Decode(out)
		if !got.Equal(doc) {
			t.Errorf("case %d: round-trip mismatch\ninput:  %v\nencoded: %q\ndecoded: %v", i, doc, out, got)
		}
	}
	scalars := []Value{IntValue(42), StringValue("bare string"), Null}
	for i, s := range scalars {
		out := Encode(s)
		got := Decode("[" + out + "]")
		if !got.Equal(ListValue([]Value{s})) {
			t.Errorf("scalar %d: round-trip mismatch\ninput:  %v\nencoded: %q\ndecoded: %v", i, s, out, got)
		}
	}
}

func TestRoundtripHeaderPresence(t *testing.T) {
	doc := ListValue([]Value{
		MapValue(mustMap("id", IntValue(1))),
		MapValue(mustMap("id", IntValue(2))),
	})
	out := Encode(doc)
	lines := splitNonEmptyLines(out)
	idx := 0
	if len(lines) > 0 && len(lines[0]) > 0 && lines[0][0] == aliasSigil[0] {
		idx = 1
	}
	if idx >= len(lines) || lines[idx][0] != headerLeader[0] {
		t.Fatalf("expected a header line, got: %v", lines)
	}
}

func splitNonEmptyLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func TestRoundtripAliasCorrectness(t *testing.T) {
	mk := func(a, b string) Value {
		return MapValue(mustMap("infrastructure", MapValue(mustMap(
			"primary", MapValue(mustMap("status", StringValue(a))),
			"replica", MapValue(mustMap("status", StringValue(b))),
		))))
	}
	doc := ListValue([]Value{mk("up", "up"), mk("down", "degraded")})
	out := Encode(doc)
	if len(out) == 0 || out[0] != aliasSigil[0] {
		t.Fatalf("expected an alias definition line, got: %q", out)
	}
	decoded := Decode(out)
	if !decoded.Equal(doc) {
		t.Fatalf("alias round-trip mismatch:\nencoded: %q\ndecoded: %v\nwant: %v", out, decoded, doc)
	}
}
