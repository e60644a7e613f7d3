package zoon

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/zoon-format/zoon/internal/util"
)

// EncodeOptions tunes the compression heuristics of spec.md §4.2.1.
// The zero value is not valid; use DefaultEncodeOptions.
type EncodeOptions struct {
	// EnumMaxUnique is the largest number of distinct values a column
	// may have and still be enum-eligible (spec.md: "<= 10").
	EnumMaxUnique int
	// EnumMaxRatioDenominator makes a column enum-eligible only when
	// unique-count <= N/EnumMaxRatioDenominator (spec.md: "<= N/2").
	EnumMaxRatioDenominator int
	// TextThreshold is the average string length above which a string
	// column is upgraded to the quoted "t" type (spec.md: "> 30").
	TextThreshold float64
	// MaxAliases caps how many prefix aliases one document may define
	// (spec.md: "Stop at 10 aliases").
	MaxAliases int
}

// DefaultEncodeOptions matches spec.md's fixed constants exactly.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		EnumMaxUnique:           10,
		EnumMaxRatioDenominator: 2,
		TextThreshold:           30,
		MaxAliases:              10,
	}
}

// Encode renders v as ZOON text using the default heuristics. Encode
// never fails (spec.md §6).
func Encode(v Value) string {
	return EncodeWithOptions(v, DefaultEncodeOptions())
}

// EncodeWithOptions renders v as ZOON text using the given heuristics.
func EncodeWithOptions(v Value, opts EncodeOptions) string {
	return EncodeContext(context.Background(), v, opts)
}

// EncodeContext is EncodeWithOptions with an optional logger threaded
// through schema inference for diagnostics (see SPEC_FULL.md §2.1).
// The returned text is identical regardless of whether a logger is
// attached to ctx.
func EncodeContext(ctx context.Context, v Value, opts EncodeOptions) string {
	log := util.FromContext(ctx)

	switch {
	case v.Kind == KindList && len(v.List) > 0 && allMaps(v.List):
		return encodeTabular(v.List, opts, log)
	case v.Kind == KindMap:
		return encodeInlineMap(v.Map)
	case v.Kind == KindList && len(v.List) == 0:
		return ""
	case v.Kind == KindList:
		return encodeSimpleList(v.List)
	default:
		// spec.md §4.2.4: scalar encoding mirrors §4.2.3's element form.
		return encodeScalarValue(v)
	}
}

func allMaps(items []Value) bool {
	for _, it := range items {
		if it.Kind != KindMap || it.Map == nil {
			return false
		}
	}
	return true
}

// --- tabular encoding (spec.md §4.2.1) ---

func encodeTabular(rows []Value, opts EncodeOptions, log *slog.Logger) string {
	n := len(rows)
	flatRows := make([]map[string]Value, n)
	keySet := make(map[string]bool)
	var allKeys []string
	for i, row := range rows {
		_, flat := flattenRow(row.Map)
		flatRows[i] = flat
		for k := range flat {
			if !keySet[k] {
				keySet[k] = true
				allKeys = append(allKeys, k)
			}
		}
	}
	sort.Strings(allKeys)

	get := func(rowIdx int, key string) Value {
		if v, ok := flatRows[rowIdx][key]; ok {
			return v
		}
		return Null
	}

	// Step 3: constant detection (only when n > 1).
	constants := make(map[string]Value)
	var constantKeys []string
	var activeKeys []string
	if n > 1 {
		for _, key := range allKeys {
			first := get(0, key)
			isConstant := true
			for i := 1; i < n; i++ {
				if !get(i, key).Equal(first) {
					isConstant = false
					break
				}
			}
			if isConstant && !first.IsNull() {
				constants[key] = first
				constantKeys = append(constantKeys, key)
			} else {
				activeKeys = append(activeKeys, key)
			}
		}
	} else {
		activeKeys = allKeys
	}

	// Step 4: type inference per active key.
	columns := make([]Column, 0, len(activeKeys))
	colByKey := make(map[string]*Column, len(activeKeys))
	for _, key := range activeKeys {
		values := make([]Value, n)
		for i := 0; i < n; i++ {
			values[i] = get(i, key)
		}
		base := inferType(values)
		col := Column{Key: key, Type: base}

		switch base {
		case typeInteger:
			if isAutoIncrement(values) {
				col.Type = typeAutoIncr
				log.Debug("column upgraded to auto-increment", "key", key)
			}
		case typeString:
			var strForms []string
			for _, v := range values {
				if v.IsNull() {
					continue
				}
				strForms = append(strForms, encodeString(cellRawString(v)))
			}
			if enumValues, indexed := detectEnum(strForms, n, opts); enumValues != nil {
				col.Enum = enumValues
				col.Indexed = indexed
				log.Debug("column detected as enum", "key", key, "indexed", indexed, "size", len(enumValues))
			} else {
				var totalLen, count int
				for _, v := range values {
					if v.IsNull() {
						continue
					}
					totalLen += len(cellRawString(v))
					count++
				}
				avg := 0.0
				if count > 0 {
					avg = float64(totalLen) / float64(count)
				}
				if avg > opts.TextThreshold {
					col.Type = typeText
					log.Debug("column upgraded to text", "key", key, "avg_len", avg)
				}
			}
		}
		columns = append(columns, col)
		colByKey[key] = &columns[len(columns)-1]
	}

	// Step 5: alias detection over active keys.
	aliases := detectAliases(activeKeys, opts)
	if len(aliases) > 0 {
		log.Debug("aliases assigned", "count", len(aliases))
	}

	// Step 6: header emission.
	var lines []string
	if len(aliases) > 0 {
		parts := make([]string, len(aliases))
		for i, a := range aliases {
			parts[i] = aliasSigil + a.Name + literalEnumOrEq + a.Prefix
		}
		lines = append(lines, strings.Join(parts, " "))
	}

	headerParts := []string{headerLeader}
	for _, key := range constantKeys {
		headerParts = append(headerParts, encodeConstantToken(key, constants[key], aliases))
	}
	for _, key := range activeKeys {
		headerParts = append(headerParts, encodeColumnToken(*colByKey[key], aliases))
	}

	hasConsuming := false
	for _, key := range activeKeys {
		if colByKey[key].Type != typeAutoIncr {
			hasConsuming = true
			break
		}
	}
	if !hasConsuming && n > 0 {
		headerParts = append(headerParts, fmt.Sprintf("%s%d", rowCountPrefix, n))
	}
	lines = append(lines, strings.Join(headerParts, " "))

	headerBlock := strings.Join(lines, "\n")
	if !hasConsuming {
		return headerBlock + "\n"
	}

	rowLines := make([]string, n)
	for i := 0; i < n; i++ {
		var cells []string
		for _, key := range activeKeys {
			col := colByKey[key]
			if col.Type == typeAutoIncr {
				continue
			}
			cells = append(cells, encodeCell(get(i, key), *col))
		}
		rowLines[i] = strings.Join(cells, " ")
	}

	return headerBlock + "\n" + strings.Join(rowLines, "\n")
}

func encodeConstantToken(key string, v Value, aliases []aliasEntry) string {
	aliased := encodeString(applyAlias(key, aliases))
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return constMarker + aliased + typeSep + tokBoolTrueFlag
		}
		return constMarker + aliased + typeSep + tokBoolFalseFlag
	case KindInt, KindFloat:
		return constMarker + aliased + typeSep + canonicalNumber(v)
	default:
		return constMarker + aliased + literalEnumOrEq + encodeString(cellRawString(v))
	}
}

func encodeColumnToken(col Column, aliases []aliasEntry) string {
	aliased := encodeString(applyAlias(col.Key, aliases))
	switch {
	case col.Type == typeAutoIncr:
		return aliased + typeSep + typeAutoIncr
	case col.Enum != nil && col.Indexed:
		return aliased + indexedEnumSep + strings.Join(col.Enum, enumValueSep)
	case col.Enum != nil:
		return aliased + literalEnumOrEq + strings.Join(col.Enum, enumValueSep)
	default:
		return aliased + typeSep + col.Type
	}
}

// cellRawString renders value's "string form" prior to underscore
// encoding — the str(value) of spec.md §4.2.1's enum detection step.
func cellRawString(v Value) string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindBool:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindInt, KindFloat:
		return canonicalNumber(v)
	case KindNull:
		return ""
	default:
		return v.String()
	}
}

// encodeCell implements spec.md §4.2.1 step 7's per-cell row encoding.
func encodeCell(v Value, col Column) string {
	if v.IsNull() {
		return tokNull
	}
	if col.Enum != nil {
		encoded := encodeString(cellRawString(v))
		if col.Indexed {
			for i, e := range col.Enum {
				if e == encoded {
					return fmt.Sprintf("%d", i)
				}
			}
			return encoded
		}
		return encoded
	}
	switch col.Type {
	case typeBoolean:
		if v.Bool {
			return tokBoolTrueRow
		}
		return tokBoolFalseRow
	case typeInteger, typeNumber:
		return canonicalNumber(v)
	}
	if v.Kind == KindList {
		return encodeSimpleList(v.List)
	}
	if col.Type == typeText {
		return `"` + strings.ReplaceAll(cellRawString(v), `"`, `\"`) + `"`
	}
	return encodeString(cellRawString(v))
}

// --- inline encoding (spec.md §4.2.2), for a Map at the top level ---

func encodeInlineMap(m *Map) string {
	if m == nil {
		return ""
	}
	var parts []string
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		parts = append(parts, encodeInlineToken(k, v))
	}
	return strings.Join(parts, " ")
}

func encodeInlineToken(key string, v Value) string {
	switch v.Kind {
	case KindMap:
		return key + typeSep + "{" + encodeInlineMap(v.Map) + "}"
	case KindBool:
		if v.Bool {
			return key + typeSep + tokBoolTrueFlag
		}
		return key + typeSep + tokBoolFalseFlag
	case KindInt, KindFloat:
		return key + typeSep + canonicalNumber(v)
	case KindNull:
		return key + typeSep + tokNull
	case KindList:
		return key + typeSep + encodeSimpleList(v.List)
	default:
		return key + literalEnumOrEq + encodeString(cellRawString(v))
	}
}

// --- simple-list / scalar encoding (spec.md §4.2.3, §4.2.4) ---

func encodeSimpleList(items []Value) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = encodeScalarValue(v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// encodeScalarValue renders a scalar the way simple-list elements and
// top-level scalars are rendered (spec.md §4.2.3/§4.2.4): booleans as
// y/n, nulls as ~, strings underscore-encoded bare tokens.
func encodeScalarValue(v Value) string {
	switch v.Kind {
	case KindNull:
		return tokNull
	case KindBool:
		if v.Bool {
			return tokBoolTrueFlag
		}
		return tokBoolFalseFlag
	case KindInt, KindFloat:
		return canonicalNumber(v)
	case KindString:
		return encodeString(v.Str)
	case KindMap:
		return "{" + encodeInlineMap(v.Map) + "}"
	case KindList:
		return encodeSimpleList(v.List)
	default:
		return encodeString(v.String())
	}
}
