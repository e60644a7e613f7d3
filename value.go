// Package zoon implements the ZOON compact textual serialization format:
// a schema-inferring codec for homogeneous arrays of records, single
// records, and simple scalar lists, optimized to minimize byte count
// relative to JSON while preserving round-trip fidelity.
package zoon

import "fmt"

// Kind tags the variant held by a Value. Every polymorphic dispatch in
// the encoder and decoder is a switch over Kind, never a type-assertion
// chain.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the tagged sum described by spec.md §3: Null, Bool, Int,
// Float, String, List, or Map. Exactly one of the typed fields is
// meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	List  []Value
	Map   *Map
}

// Null is the singleton null Value.
var Null = Value{Kind: KindNull}

// BoolValue wraps a boolean as a Value.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IntValue wraps an int64 as a Value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue wraps a float64 as a Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// StringValue wraps a string as a Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// ListValue wraps a slice of Values as a Value.
func ListValue(items []Value) Value { return Value{Kind: KindList, List: items} }

// MapValue wraps an ordered Map as a Value.
func MapValue(m *Map) Value { return Value{Kind: KindMap, Map: m} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Equal reports structural deep-equality, the notion §8 round-trip
// properties are phrased against.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == other.Bool
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindString:
		return v.Str == other.Str
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if v.Map == nil || other.Map == nil {
			return v.Map == other.Map
		}
		return v.Map.Equal(other.Map)
	default:
		return false
	}
}

// String renders a best-effort debug form; it is not part of the wire
// format (see Encode for that).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindList:
		return fmt.Sprintf("%v", v.List)
	case KindMap:
		return fmt.Sprintf("%v", v.Map)
	default:
		return "<invalid>"
	}
}

// Map is an insertion-ordered string-keyed map of Values. A plain Go
// map cannot satisfy spec.md §3's "ordered by insertion for
// deterministic output" requirement, so Map tracks key order alongside
// a lookup index.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty ordered Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set inserts or updates key. Existing keys keep their original
// position; new keys are appended.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value at key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Equal reports whether m and other contain the same keys and
// structurally-equal values; key order is not significant.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, k := range m.keys {
		v, ok := other.Get(k)
		if !ok {
			return false
		}
		mv, _ := m.Get(k)
		if !mv.Equal(v) {
			return false
		}
	}
	return true
}

// Lexical tokens, bit-exact per spec.md §4.1.
const (
	tokNull          = "~"
	tokBoolTrueRow   = "1"
	tokBoolFalseRow  = "0"
	tokBoolTrueFlag  = "y"
	tokBoolFalseFlag = "n"

	typeString       = "s"
	typeInteger      = "i"
	typeNumber       = "n"
	typeBoolean      = "b"
	typeAutoIncr     = "i+"
	typeText         = "t"

	headerLeader     = "#"
	aliasSigil       = "%"
	constMarker      = "@"
	indexedEnumSep   = "!"
	literalEnumOrEq  = "="
	typeSep          = ":"
	rowCountPrefix   = "+"
	enumValueSep     = "|"
	spaceSubstitute  = "_"
)
