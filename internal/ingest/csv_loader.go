package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/zoon-format/zoon"
	"github.com/zoon-format/zoon/internal/util"
)

// CSVLoader reads .csv and .tsv files, one zoon row per record.
type CSVLoader struct {
	Delimiter rune
}

// NewCSVLoader returns a CSVLoader using ',' as the field delimiter.
// Use Delimiter = '\t' for tab-separated input.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{Delimiter: ','}
}

func (l *CSVLoader) Extensions() []string { return []string{".csv", ".tsv"} }

func (l *CSVLoader) Load(ctx context.Context, relPath string, absPath string) (zoon.Value, error) {
	log := util.FromContext(ctx)

	f, err := os.Open(absPath)
	if err != nil {
		return zoon.Null, util.WrapError(err, "open csv file")
	}
	defer f.Close()

	r := csv.NewReader(f)
	if l.Delimiter != 0 {
		r.Comma = l.Delimiter
	}
	r.ReuseRecord = true

	headers, err := r.Read()
	if err != nil {
		return zoon.Null, util.WrapError(err, "read csv header")
	}
	headers = append([]string(nil), headers...)

	var rows []zoon.Value
	for {
		select {
		case <-ctx.Done():
			return rowsValue(rows), ctx.Err()
		default:
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn("skipping malformed csv row", "path", relPath, "error", err)
			continue
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, rowFromTextMap(row))
	}

	log.Debug("loaded csv rows", "path", relPath, "rows", len(rows))
	return rowsValue(rows), nil
}
