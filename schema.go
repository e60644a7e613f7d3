package zoon

import (
	"sort"
	"strconv"
)

// Column describes one tabular column in an inferred Schema
// (spec.md §3).
type Column struct {
	Key     string
	Type    string // one of typeString, typeInteger, typeNumber, typeBoolean, typeAutoIncr, typeText
	Enum    []string
	Indexed bool
}

// aliasEntry is one %name=prefix definition, kept in assignment order
// so alias substitution can apply first-match-wins (spec.md §4.2.1).
type aliasEntry struct {
	Prefix string
	Name   string
}

// Schema is the inferred compression plan for one tabular encode call
// (spec.md §3). It exists only for the duration of a single Encode.
type Schema struct {
	Aliases      []aliasEntry
	ConstantKeys []string // sorted order, subset of constants hoisted
	Constants    map[string]Value
	Columns      []Column
	ExplicitRows int // >0 iff every column is i+
}

// inferType implements spec.md §4.2.1 step 4's base-type cascade,
// before enum/text refinement. Returns typeString if values has no
// non-null entries.
func inferType(values []Value) string {
	var first *Value
	allInt := true
	for i := range values {
		if values[i].Kind == KindNull {
			continue
		}
		if first == nil {
			first = &values[i]
		}
		if values[i].Kind != KindInt {
			allInt = false
		}
	}
	if first == nil {
		return typeString
	}
	switch first.Kind {
	case KindBool:
		return typeBoolean
	case KindInt:
		if allInt {
			return typeInteger
		}
		return typeNumber
	case KindFloat:
		return typeNumber
	default:
		return typeString
	}
}

// isAutoIncrement reports whether values form a strictly consecutive
// ascending integer sequence of length >= 2, ignoring nulls in the
// count per spec.md §4.2.1 step 4 (upgrade from "i" to "i+").
func isAutoIncrement(values []Value) bool {
	var ints []int64
	for _, v := range values {
		if v.Kind == KindNull {
			continue
		}
		if v.Kind != KindInt {
			return false
		}
		ints = append(ints, v.Int)
	}
	if len(ints) < 2 {
		return false
	}
	for i := 1; i < len(ints); i++ {
		if ints[i] != ints[i-1]+1 {
			return false
		}
	}
	return true
}

// detectEnum implements spec.md §4.2.1 step 4's enum-detection and
// indexed-vs-literal cost comparison. values holds the string form of
// every non-null cell in column order (including repeats); rowCount is
// the total row count (N). Returns (nil, false) when the column is not
// enum-eligible.
func detectEnum(values []string, rowCount int, opts EncodeOptions) ([]string, bool) {
	if len(values) < 2 {
		return nil, false
	}
	seen := make(map[string]bool, len(values))
	var unique []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	sort.Strings(unique)

	if len(unique) < 2 || len(unique) > rowCount/opts.EnumMaxRatioDenominator || len(unique) > opts.EnumMaxUnique {
		return nil, false
	}

	var totalLen int
	for _, u := range unique {
		totalLen += len(u)
	}
	avgLen := float64(totalLen) / float64(len(unique))

	joined := 0
	for i, u := range unique {
		if i > 0 {
			joined++ // "|"
		}
		joined += len(u)
	}
	literalCost := avgLen * float64(rowCount)
	indexCost := float64(joined) + float64(rowCount)*2

	indexed := len(unique) >= 3 && literalCost > indexCost
	return unique, indexed
}

// detectAliases implements spec.md §4.2.1 step 5's greedy prefix-alias
// discovery over the active keys of a tabular encode. The single-letter
// fallback counter is local to this call, per spec.md §9's pinned
// contract (the Python source's `chr(97 + i)` counter was not reset
// between calls; this spec fixes that).
func detectAliases(activeKeys []string, opts EncodeOptions) []aliasEntry {
	type candidate struct {
		prefix string
		net    int
	}
	prefixCounts := make(map[string]int)
	var prefixOrder []string
	for _, key := range activeKeys {
		parts := splitDotted(key)
		for i := 1; i < len(parts); i++ {
			prefix := joinDotted(parts[:i])
			if prefixCounts[prefix] == 0 {
				prefixOrder = append(prefixOrder, prefix)
			}
			prefixCounts[prefix]++
		}
	}

	var candidates []candidate
	for _, prefix := range prefixOrder {
		count := prefixCounts[prefix]
		net := (len(prefix)-2)*count - (len(prefix) + 4)
		if net > 0 {
			candidates = append(candidates, candidate{prefix: prefix, net: net})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].net > candidates[j].net })

	used := make(map[string]bool)
	claimed := make(map[string]bool)
	var aliases []aliasEntry
	fallbackIdx := 0

	for _, c := range candidates {
		var unclaimedCount int
		for _, key := range activeKeys {
			if !claimed[key] && startsWithDotPrefix(key, c.prefix) {
				unclaimedCount++
			}
		}
		if unclaimedCount < 2 {
			continue
		}

		alias := defaultAliasFor(c.prefix)
		if len(alias) < 2 || used[alias] {
			for fallbackIdx <= 25 && used[string(rune('a'+fallbackIdx))] {
				fallbackIdx++
			}
			if fallbackIdx <= 25 {
				alias = string(rune('a' + fallbackIdx))
				fallbackIdx++
			}
		}
		used[alias] = true
		aliases = append(aliases, aliasEntry{Prefix: c.prefix, Name: alias})

		for _, key := range activeKeys {
			if startsWithDotPrefix(key, c.prefix) {
				claimed[key] = true
			}
		}

		if len(aliases) >= opts.MaxAliases {
			break
		}
	}
	return aliases
}

func defaultAliasFor(prefix string) string {
	parts := splitDotted(prefix)
	out := make([]byte, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, lowerByte(p[0]))
	}
	return string(out)
}

func lowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

func splitDotted(key string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			parts = append(parts, key[start:i])
			start = i + 1
		}
	}
	parts = append(parts, key[start:])
	return parts
}

func joinDotted(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "." + p
	}
	return out
}

func startsWithDotPrefix(key, prefix string) bool {
	return len(key) > len(prefix) && key[:len(prefix)] == prefix && key[len(prefix)] == '.'
}

// applyAlias implements spec.md §4.2.1's "Alias substitution on a path
// P": first matching (prefix, alias) wins, in the schema's assignment
// order.
func applyAlias(path string, aliases []aliasEntry) string {
	for _, a := range aliases {
		if path == a.Prefix {
			return aliasSigil + a.Name
		}
		if startsWithDotPrefix(path, a.Prefix) {
			return aliasSigil + a.Name + path[len(a.Prefix):]
		}
	}
	return path
}

// canonicalNumber renders an int/float Value's canonical decimal form
// for row cells and constants, matching Python str(value) closely
// enough for round-trip fidelity: integers have no decimal point,
// ordinary-magnitude floats use plain decimal notation, and very
// large/small magnitudes fall back to exponential notation rather than
// a absurdly long run of digits.
func canonicalNumber(v Value) string {
	if v.Kind == KindInt {
		return strconv.FormatInt(v.Int, 10)
	}
	f := v.Float
	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
