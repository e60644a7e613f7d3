package zoon

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/zoon-format/zoon/internal/util"
)

// Decode parses ZOON text into a Value. Decode is total over
// syntactically well-formed ZOON (spec.md §6): malformed tokens
// degrade to raw string values rather than raising.
func Decode(text string) Value {
	return DecodeContext(context.Background(), text)
}

// DecodeContext is Decode with an optional logger threaded through
// tabular decoding for diagnostics (see SPEC_FULL.md §2.1).
func DecodeContext(ctx context.Context, text string) Value {
	log := util.FromContext(ctx)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Null
	}

	lines := strings.Split(trimmed, "\n")
	aliases := make(map[string]string)
	headerIndex := -1

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, aliasSigil) {
			parseAliasLine(line, aliases)
			continue
		}
		if strings.HasPrefix(line, headerLeader) {
			headerIndex = i
			break
		}
		break
	}

	if headerIndex != -1 {
		return decodeTabular(lines[headerIndex:], aliases, log)
	}
	if strings.HasPrefix(trimmed, "[") {
		return decodeSimpleList(trimmed)
	}
	return decodeInline(trimmed)
}

// parseAliasLine implements spec.md §4.3's "Alias line parsing".
func parseAliasLine(line string, aliases map[string]string) {
	for _, tok := range strings.Fields(line) {
		if !strings.Contains(tok, literalEnumOrEq) {
			continue
		}
		parts := strings.SplitN(tok, literalEnumOrEq, 2)
		if strings.HasPrefix(parts[0], aliasSigil) {
			aliases[strings.TrimPrefix(parts[0], aliasSigil)] = parts[1]
		}
	}
}

// --- tabular decoding (spec.md §4.3) ---

func decodeTabular(lines []string, aliases map[string]string, log *slog.Logger) Value {
	columns, constants, constantKeys, explicitRows := parseHeader(lines[0], aliases)
	constantObj := unflattenObject(constantKeys, constants)

	autoIncCounters := make(map[string]int64)
	for _, c := range columns {
		if c.Type == typeAutoIncr {
			autoIncCounters[c.Key] = 0
		}
	}

	processRow := func(tokens []string) Value {
		var flatKeys []string
		flat := make(map[string]Value)
		addKey := func(key string, v Value) {
			if _, exists := flat[key]; !exists {
				flatKeys = append(flatKeys, key)
			}
			flat[key] = v
		}

		tokenIdx := 0
		for _, col := range columns {
			if col.Type == typeAutoIncr {
				autoIncCounters[col.Key]++
				addKey(col.Key, IntValue(autoIncCounters[col.Key]))
				continue
			}
			if tokenIdx >= len(tokens) {
				addKey(col.Key, Null)
				continue
			}
			token := tokens[tokenIdx]
			tokenIdx++
			addKey(col.Key, decodeCell(token, col))
		}

		rowObj := unflattenObject(flatKeys, flat)
		deepMerge(rowObj, constantObj)
		return MapValue(rowObj)
	}

	var rows []Value
	if explicitRows > 0 {
		log.Debug("synthesizing explicit rows", "count", explicitRows)
		for i := 0; i < explicitRows; i++ {
			rows = append(rows, processRow(nil))
		}
	} else {
		for _, raw := range lines[1:] {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			rows = append(rows, processRow(strings.Fields(line)))
		}
	}
	return ListValue(rows)
}

// parseHeader implements spec.md §4.3's "Header parsing". Returns
// columns in header order, a flat constants map, the constants' key
// order, and the explicit row count (0 if absent).
func parseHeader(headerLine string, aliases map[string]string) ([]Column, map[string]Value, []string, int) {
	stripped := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(headerLine), headerLeader))
	parts := strings.Fields(stripped)

	var columns []Column
	constants := make(map[string]Value)
	var constantKeys []string
	explicitRows := 0

	for _, part := range parts {
		if strings.HasPrefix(part, rowCountPrefix) {
			if n, err := strconv.Atoi(part[1:]); err == nil {
				explicitRows = n
			}
			continue
		}

		if strings.HasPrefix(part, constMarker) {
			body := part[1:]
			var key string
			var v Value
			if idx := strings.Index(body, literalEnumOrEq); idx != -1 {
				key = body[:idx]
				v = StringValue(decodeString(body[idx+1:]))
			} else if idx := strings.Index(body, typeSep); idx != -1 {
				key = body[:idx]
				v = decodeUntypedLiteral(body[idx+1:])
			} else {
				continue
			}
			key = resolveAliasKey(key, aliases)
			if _, exists := constants[key]; !exists {
				constantKeys = append(constantKeys, key)
			}
			constants[key] = v
			continue
		}

		// Column forms, tested in the order spec.md §4.3 step 3 lists.
		switch {
		case strings.Contains(part, typeSep+typeAutoIncr):
			key := strings.SplitN(part, typeSep, 2)[0]
			columns = append(columns, Column{Key: resolveAliasKey(key, aliases), Type: typeAutoIncr})
		case strings.Contains(part, indexedEnumSep):
			kv := strings.SplitN(part, indexedEnumSep, 2)
			columns = append(columns, Column{
				Key:     resolveAliasKey(kv[0], aliases),
				Type:    typeString,
				Enum:    strings.Split(kv[1], enumValueSep),
				Indexed: true,
			})
		case strings.Contains(part, literalEnumOrEq):
			kv := strings.SplitN(part, literalEnumOrEq, 2)
			columns = append(columns, Column{
				Key:  resolveAliasKey(kv[0], aliases),
				Type: typeString,
				Enum: strings.Split(kv[1], enumValueSep),
			})
		case strings.Contains(part, typeSep):
			kv := strings.SplitN(part, typeSep, 2)
			columns = append(columns, Column{Key: resolveAliasKey(kv[0], aliases), Type: kv[1]})
		default:
			// Unrecognized header token shape: skip it (spec.md §7).
		}
	}

	return columns, constants, constantKeys, explicitRows
}

// resolveAliasKey implements spec.md §4.3 step 4's alias resolution on
// a header key. An alias use referring to an undefined alias is left
// verbatim (spec.md §7).
func resolveAliasKey(key string, aliases map[string]string) string {
	if !strings.HasPrefix(key, aliasSigil) {
		return key
	}
	rest := key[1:]
	if dot := strings.Index(rest, "."); dot != -1 {
		name, suffix := rest[:dot], rest[dot+1:]
		if prefix, ok := aliases[name]; ok {
			return prefix + "." + suffix
		}
		return key
	}
	if prefix, ok := aliases[rest]; ok {
		return prefix
	}
	return key
}

// decodeUntypedLiteral implements spec.md §4.3 step 2's untyped
// constant coercion cascade.
func decodeUntypedLiteral(s string) Value {
	switch s {
	case tokBoolTrueFlag, tokBoolTrueRow:
		return BoolValue(true)
	case tokBoolFalseFlag, tokBoolFalseRow:
		return BoolValue(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f)
	}
	return StringValue(decodeString(s))
}

// decodeCell implements spec.md §4.3's "Cell interpretation by column".
func decodeCell(token string, col Column) Value {
	if token == tokNull {
		return Null
	}
	if col.Enum != nil {
		if col.Indexed {
			if idx, err := strconv.Atoi(token); err == nil && idx >= 0 && idx < len(col.Enum) {
				return StringValue(decodeString(col.Enum[idx]))
			}
			return StringValue(decodeString(token))
		}
		return StringValue(decodeString(token))
	}
	switch col.Type {
	case typeBoolean:
		return BoolValue(token == tokBoolTrueRow)
	case typeInteger, typeNumber:
		if strings.Contains(token, ".") {
			if f, err := strconv.ParseFloat(token, 64); err == nil {
				return FloatValue(f)
			}
			return StringValue(token)
		}
		if i, err := strconv.ParseInt(token, 10, 64); err == nil {
			return IntValue(i)
		}
		return StringValue(token)
	default:
		return StringValue(decodeString(token))
	}
}

// --- inline decoding (spec.md §4.3 "Inline decode") ---

var inlineTokenPattern = regexp.MustCompile(`(\w+)(?:[:=])(?:\{([^}]*)\}|([^\s]+))`)

func decodeInline(text string) Value {
	m := NewMap()
	for _, idx := range inlineTokenPattern.FindAllStringSubmatchIndex(text, -1) {
		key := text[idx[2]:idx[3]]
		if idx[4] != -1 { // group 2 (nested braces) matched, even if empty
			m.Set(key, decodeInline(text[idx[4]:idx[5]]))
			continue
		}
		bare := text[idx[6]:idx[7]]
		m.Set(key, decodeInlineScalar(bare))
	}
	return MapValue(m)
}

func decodeInlineScalar(token string) Value {
	switch token {
	case "y", "yes", "true":
		return BoolValue(true)
	case "n", "no", "false":
		return BoolValue(false)
	case tokNull:
		return Null
	}
	if strings.HasPrefix(token, "[") && strings.HasSuffix(token, "]") {
		return decodeSimpleList(token)
	}
	if strings.Contains(token, ".") {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return FloatValue(f)
		}
	} else if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return IntValue(i)
	}
	return StringValue(decodeString(token))
}

// --- simple-list decoding (spec.md §4.3 "Simple-list decode") ---

func decodeSimpleList(text string) Value {
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	if inner == "" {
		return ListValue(nil)
	}
	parts := strings.Split(inner, ",")
	items := make([]Value, len(parts))
	for i, p := range parts {
		items[i] = decodeInlineScalar(strings.TrimSpace(p))
	}
	return ListValue(items)
}
