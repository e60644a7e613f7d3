package zoon

import "strings"

// encodeString replaces spaces with underscores. Deliberately lossy for
// strings that already contain an underscore (spec.md §4.4, §8.8).
func encodeString(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// decodeString is encodeString's inverse.
func decodeString(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// flattenRow descends a Map into a dotted-path → leaf-Value mapping
// (spec.md §3 FlatRow). Nested maps are recursed into and joined with
// ".". Lists are always kept as opaque leaves: an empty list or a list
// of non-maps is a leaf by definition, and a list of maps is *not*
// recursed into either — spec.md §9 leaves "list of maps as a cell"
// out of scope for the row writer, so flatten keeps it as a single
// leaf Value rather than guessing a recursive shape for it.
//
// keys is returned in first-seen order purely for convenience to
// callers that want a stable per-row iteration order before a caller
// does the cross-row union/sort the encoder needs; it does not by
// itself define the global column order.
func flattenRow(m *Map) (keys []string, flat map[string]Value) {
	flat = make(map[string]Value)
	var walk func(prefix string, m *Map)
	walk = func(prefix string, m *Map) {
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			newKey := k
			if prefix != "" {
				newKey = prefix + "." + k
			}
			if v.Kind == KindMap && v.Map != nil {
				walk(newKey, v.Map)
				continue
			}
			if _, exists := flat[newKey]; !exists {
				keys = append(keys, newKey)
			}
			flat[newKey] = v
		}
	}
	walk("", m)
	return keys, flat
}

// unflattenObject is flatten's inverse: it rebuilds nested Maps from a
// dotted-path → Value mapping, walking/creating intermediate maps for
// every segment but the last. keys gives the iteration order to apply
// assignments in (spec.md §4.3 "Unflatten").
//
// Per spec.md §7/§9, a path-segment collision (a segment expected to
// hold a Map already holds a non-map leaf) is resolved right-most-wins:
// the later assignment overwrites the earlier one by replacing the
// non-map value with a fresh Map. This is only a contract for inputs
// that did not originate from this encoder.
func unflattenObject(keys []string, flat map[string]Value) *Map {
	root := NewMap()
	for _, key := range keys {
		v := flat[key]
		parts := strings.Split(key, ".")
		cur := root
		for i := 0; i < len(parts)-1; i++ {
			part := parts[i]
			existing, ok := cur.Get(part)
			if !ok || existing.Kind != KindMap || existing.Map == nil {
				fresh := NewMap()
				cur.Set(part, MapValue(fresh))
				cur = fresh
			} else {
				cur = existing.Map
			}
		}
		cur.Set(parts[len(parts)-1], v)
	}
	return root
}

// deepMerge recursively merges source on top of target: where both
// sides hold a Map at the same key, the merge recurses; otherwise
// source wins (spec.md §4.3 "Deep-merge constants").
func deepMerge(target, source *Map) {
	for _, k := range source.Keys() {
		sv, _ := source.Get(k)
		if tv, ok := target.Get(k); ok && tv.Kind == KindMap && tv.Map != nil && sv.Kind == KindMap && sv.Map != nil {
			deepMerge(tv.Map, sv.Map)
			continue
		}
		target.Set(k, sv)
	}
}
