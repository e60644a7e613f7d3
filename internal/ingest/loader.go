// Package ingest loads tabular files from disk and converts them into
// ZOON tabular documents ready for Encode, and writes them back out.
package ingest

import (
	"context"

	"github.com/zoon-format/zoon"
)

// Loader loads one file format into a tabular zoon.Value — a
// zoon.ListValue of zoon.MapValue rows, the shape Encode's tabular
// dispatch rule expects. Extensions returns the lowercase,
// dot-prefixed file extensions a Loader claims (e.g. []string{".csv"}).
type Loader interface {
	Extensions() []string
	Load(ctx context.Context, relPath string, absPath string) (zoon.Value, error)
}

func rowsValue(rows []zoon.Value) zoon.Value {
	return zoon.ListValue(rows)
}
