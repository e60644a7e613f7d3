package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/zoon-format/zoon"
	"github.com/zoon-format/zoon/internal/util"
)

// JSONLoader reads .json (a top-level array or object) and .jsonl
// (one object per line) files.
type JSONLoader struct{}

func NewJSONLoader() *JSONLoader { return &JSONLoader{} }

func (l *JSONLoader) Extensions() []string { return []string{".json", ".jsonl"} }

func (l *JSONLoader) Load(ctx context.Context, relPath string, absPath string) (zoon.Value, error) {
	log := util.FromContext(ctx)

	f, err := os.Open(absPath)
	if err != nil {
		return zoon.Null, util.WrapError(err, "open json file")
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(absPath), ".jsonl") {
		rows, err := loadJSONL(f, log)
		if err != nil {
			return zoon.Null, err
		}
		log.Debug("loaded jsonl rows", "path", relPath, "rows", len(rows))
		return rowsValue(rows), nil
	}

	var data any
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		return zoon.Null, util.WrapError(err, "decode json file")
	}

	switch v := data.(type) {
	case []any:
		rows := make([]zoon.Value, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, rowFromAnyMap(m))
			} else {
				rows = append(rows, cellFromAny(item))
			}
		}
		return rowsValue(rows), nil
	case map[string]any:
		return rowFromAnyMap(v), nil
	default:
		return cellFromAny(v), nil
	}
}

func loadJSONL(r io.Reader, log *slog.Logger) ([]zoon.Value, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var rows []zoon.Value
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			log.Warn("skipping malformed jsonl line", "error", err)
			continue
		}
		rows = append(rows, rowFromAnyMap(obj))
	}
	return rows, scanner.Err()
}
