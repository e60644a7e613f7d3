package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/zoon-format/zoon"
	"github.com/zoon-format/zoon/internal/util"
)

// ParquetLoader streams rows from .parquet files as untyped column
// maps, preserving each column's native Parquet type.
type ParquetLoader struct {
	// BatchSize bounds how many rows are pulled from the reader per
	// Read call. Zero uses a sensible default.
	BatchSize int
}

func NewParquetLoader() *ParquetLoader { return &ParquetLoader{} }

func (l *ParquetLoader) Extensions() []string { return []string{".parquet"} }

func (l *ParquetLoader) Load(ctx context.Context, relPath string, absPath string) (zoon.Value, error) {
	log := util.FromContext(ctx)

	fr, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return zoon.Null, util.WrapError(err, "open parquet file")
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, map[string]any{}, 1)
	if err != nil {
		return zoon.Null, util.WrapError(err, "open parquet reader")
	}
	defer pr.ReadStop()

	batch := l.BatchSize
	if batch <= 0 {
		batch = 1000
	}

	total := int(pr.GetNumRows())
	var rows []zoon.Value
	for read := 0; read < total; {
		select {
		case <-ctx.Done():
			return rowsValue(rows), ctx.Err()
		default:
		}
		n := batch
		if total-read < n {
			n = total - read
		}
		data := make([]any, n)
		if err := pr.Read(&data); err != nil {
			return rowsValue(rows), util.WrapError(err, "read parquet batch")
		}
		for _, rowData := range data {
			m, ok := rowData.(map[string]any)
			if !ok {
				continue
			}
			rows = append(rows, rowFromAnyMap(m))
		}
		read += n
	}

	log.Debug("loaded parquet rows", "path", relPath, "rows", len(rows))
	return rowsValue(rows), nil
}

// WriteParquet writes a ZOON tabular (list-of-maps) document out as a
// flat Parquet file, inferring a per-column string/int64/float64/bool
// JSON schema from the union of row keys and each column's first
// non-null value. Int, float and bool kinds map to INT64, DOUBLE and
// BOOLEAN, every other kind to a UTF8 string column. A column whose
// later values have a different kind keeps the type of its first
// non-null value; those values are not converted to strings.
func WriteParquet(doc zoon.Value, absPath string) error {
	if doc.Kind != zoon.KindList {
		return util.NewError("WriteParquet requires a tabular (list-of-maps) document")
	}

	var headers []string
	kinds := make(map[string]zoon.Kind)
	seen := make(map[string]bool)
	for _, row := range doc.List {
		if row.Kind != zoon.KindMap {
			continue
		}
		for _, k := range row.Map.Keys() {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
			if v, ok := row.Map.Get(k); ok && !v.IsNull() {
				if _, has := kinds[k]; !has {
					kinds[k] = v.Kind
				}
			}
		}
	}

	schema := buildParquetJSONSchema(headers, kinds)

	fw, err := local.NewLocalFileWriter(absPath)
	if err != nil {
		return util.WrapError(err, "create parquet file")
	}
	defer fw.Close()

	pw, err := writer.NewJSONWriter(schema, fw, 1)
	if err != nil {
		return util.WrapError(err, "create parquet writer")
	}

	for _, row := range doc.List {
		record := map[string]any{}
		if row.Kind == zoon.KindMap {
			for _, h := range headers {
				v, _ := row.Map.Get(h)
				record[h] = parquetCellValue(v, kinds[h])
			}
		}
		recJSON, err := json.Marshal(record)
		if err != nil {
			return util.WrapError(err, "marshal parquet row")
		}
		if err := pw.Write(string(recJSON)); err != nil {
			return util.WrapError(err, "write parquet row")
		}
	}
	if err := pw.WriteStop(); err != nil {
		return util.WrapError(err, "flush parquet writer")
	}
	return nil
}

// buildParquetJSONSchema builds the JSON-schema string parquet-go's
// writer.NewJSONWriter expects: one OPTIONAL field per header, typed
// from each column's first observed Value kind.
func buildParquetJSONSchema(headers []string, kinds map[string]zoon.Kind) string {
	var fields []string
	for _, h := range headers {
		tag := fmt.Sprintf("name=%s, repetitiontype=OPTIONAL", parquetFieldName(h))
		switch kinds[h] {
		case zoon.KindInt:
			tag += ", type=INT64"
		case zoon.KindFloat:
			tag += ", type=DOUBLE"
		case zoon.KindBool:
			tag += ", type=BOOLEAN"
		default:
			tag += ", type=BYTE_ARRAY, convertedtype=UTF8"
		}
		fields = append(fields, fmt.Sprintf(`{"Tag": "%s"}`, tag))
	}
	return fmt.Sprintf(`{"Tag": "name=root, repetitiontype=REQUIRED", "Fields": [%s]}`, strings.Join(fields, ", "))
}

// parquetFieldName strips characters the parquet-go JSON schema tag
// parser treats as delimiters.
func parquetFieldName(key string) string {
	return strings.NewReplacer(",", "_", "=", "_", " ", "_").Replace(key)
}

// parquetCellValue renders v as a JSON-ready value matching the
// column's inferred parquet type.
func parquetCellValue(v zoon.Value, kind zoon.Kind) any {
	if v.IsNull() {
		return nil
	}
	switch kind {
	case zoon.KindInt:
		if v.Kind == zoon.KindInt {
			return v.Int
		}
	case zoon.KindFloat:
		if v.Kind == zoon.KindFloat {
			return v.Float
		}
	case zoon.KindBool:
		if v.Kind == zoon.KindBool {
			return v.Bool
		}
	}
	return zoon.ToAny(v)
}
