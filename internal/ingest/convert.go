package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zoon-format/zoon"
)

// cellFromText coerces a raw text cell (CSV, Excel, or any other
// loader that only ever sees strings) into a Value, so that schema.go's
// column-type inference sees real bools/ints/floats instead of every
// column collapsing to typeString. This mirrors decode.go's untyped
// constant cascade: bool words, then int, then float, else string.
func cellFromText(raw string) zoon.Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return zoon.Null
	}
	switch strings.ToLower(s) {
	case "true":
		return zoon.BoolValue(true)
	case "false":
		return zoon.BoolValue(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return zoon.IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return zoon.FloatValue(f)
	}
	return zoon.StringValue(raw)
}

// rowFromTextMap converts a loosely-typed string-keyed row, as read
// from CSV or spreadsheet cells, into a ZOON row.
func rowFromTextMap(row map[string]string) zoon.Value {
	m := zoon.NewMap()
	for k, v := range row {
		m.Set(k, cellFromText(v))
	}
	return zoon.MapValue(m)
}

// cellFromAny converts a natively-typed value, as produced by
// encoding/json, a SQL driver, or a Parquet reader, into a Value.
// time.Time and []byte, which zoon.FromAny does not support, are
// normalized to strings first; any other type FromAny rejects becomes
// its fmt.Sprint string.
func cellFromAny(v any) zoon.Value {
	switch vv := v.(type) {
	case nil:
		return zoon.Null
	case []byte:
		return zoon.StringValue(string(vv))
	case time.Time:
		return zoon.StringValue(vv.Format(time.RFC3339))
	case map[string]any:
		m := zoon.NewMap()
		for k, e := range vv {
			m.Set(k, cellFromAny(e))
		}
		return zoon.MapValue(m)
	case []any:
		items := make([]zoon.Value, len(vv))
		for i, e := range vv {
			items[i] = cellFromAny(e)
		}
		return zoon.ListValue(items)
	}
	zv, err := zoon.FromAny(v)
	if err != nil {
		return zoon.StringValue(strings.TrimSpace(fmt.Sprint(v)))
	}
	return zv
}

// rowFromAnyMap converts a natively-typed row into a ZOON row.
func rowFromAnyMap(row map[string]any) zoon.Value {
	m := zoon.NewMap()
	for k, v := range row {
		m.Set(k, cellFromAny(v))
	}
	return zoon.MapValue(m)
}
