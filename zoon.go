package zoon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrUnsupportedType is returned by FromAny when a Go value cannot be
// represented in the ZOON value model (spec.md §3).
var ErrUnsupportedType = errors.New("zoon: unsupported type")

// Writer writes ZOON-encoded Values to an underlying stream, mirroring
// the shape of encoding/json's Encoder.
type Writer struct {
	w    io.Writer
	opts EncodeOptions
}

// NewWriter returns a Writer that writes to w using the default
// encode heuristics.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, opts: DefaultEncodeOptions()}
}

// WithOptions overrides the encode heuristics used by subsequent
// Write calls and returns the Writer for chaining.
func (e *Writer) WithOptions(opts EncodeOptions) *Writer {
	e.opts = opts
	return e
}

// Write encodes v and writes the ZOON text to the underlying stream.
func (e *Writer) Write(v Value) error {
	_, err := io.WriteString(e.w, EncodeWithOptions(v, e.opts))
	return err
}

// Reader reads a single ZOON document from an underlying stream,
// mirroring the shape of encoding/json's Decoder.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read reads the entirety of the underlying stream and decodes it as
// one ZOON document.
func (d *Reader) Read() (Value, error) {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return Null, err
	}
	return Decode(string(data)), nil
}

// Marshal returns the ZOON encoding of v, a native Go value (nil,
// bool, numeric, string, []any, or map[string]any). It is a
// convenience wrapper around FromAny followed by Encode.
func Marshal(v any) ([]byte, error) {
	zv, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(zv); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes ZOON text into a native Go value: map[string]any,
// []any, or a scalar, matching encoding/json's untyped-decode shape.
func Unmarshal(data []byte) (any, error) {
	return ToAny(Decode(string(data))), nil
}

// FromAny converts a native Go value into the ZOON Value model.
// Supported kinds: nil, bool, every int/uint width, float32/float64,
// string, []any, map[string]any. Maps are ordered by sorted key for
// determinism, since Go's map type carries no insertion order;
// callers that need to control key order should build a *Map
// directly via MapValue instead of going through FromAny.
func FromAny(v any) (Value, error) {
	switch vv := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return BoolValue(vv), nil
	case int:
		return IntValue(int64(vv)), nil
	case int8:
		return IntValue(int64(vv)), nil
	case int16:
		return IntValue(int64(vv)), nil
	case int32:
		return IntValue(int64(vv)), nil
	case int64:
		return IntValue(vv), nil
	case uint:
		return IntValue(int64(vv)), nil
	case uint8:
		return IntValue(int64(vv)), nil
	case uint16:
		return IntValue(int64(vv)), nil
	case uint32:
		return IntValue(int64(vv)), nil
	case uint64:
		return IntValue(int64(vv)), nil
	case float32:
		return FloatValue(float64(vv)), nil
	case float64:
		return FloatValue(vv), nil
	case string:
		return StringValue(vv), nil
	case []any:
		items := make([]Value, len(vv))
		for i, item := range vv {
			cv, err := FromAny(item)
			if err != nil {
				return Null, err
			}
			items[i] = cv
		}
		return ListValue(items), nil
	case map[string]any:
		m := NewMap()
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cv, err := FromAny(vv[k])
			if err != nil {
				return Null, err
			}
			m.Set(k, cv)
		}
		return MapValue(m), nil
	default:
		return Null, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// ToAny converts a ZOON Value back into native Go types: nil, bool,
// int64, float64, string, []any, map[string]any.
func ToAny(v Value) any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = ToAny(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, v.Map.Len())
		for _, k := range v.Map.Keys() {
			mv, _ := v.Map.Get(k)
			out[k] = ToAny(mv)
		}
		return out
	default:
		return nil
	}
}
