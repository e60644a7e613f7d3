package ingest

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/time/rate"

	"github.com/zoon-format/zoon"
	"github.com/zoon-format/zoon/internal/util"
)

// Manager walks a directory tree, matches each file against a set of
// include/exclude globs, and dispatches it to the Loader registered
// for its extension. Each matched file yields its own tabular
// zoon.Value; callers combine documents across files as needed (e.g.
// concatenating row lists, or keeping them keyed by path).
type Manager struct {
	include []string
	exclude []string
	loaders map[string]Loader
	limiter *rate.Limiter
}

// NewManager returns a Manager with the default loader set (CSV, JSON,
// JSONL, Excel, Parquet, SQLite) registered by extension. include and
// exclude are doublestar glob patterns matched against each file's
// path relative to the walked root; a nil include matches everything.
func NewManager(include, exclude []string) *Manager {
	m := &Manager{
		include: include,
		exclude: exclude,
		loaders: make(map[string]Loader),
	}
	for _, l := range []Loader{
		NewCSVLoader(),
		NewJSONLoader(),
		NewExcelLoader(),
		NewParquetLoader(),
		NewSQLiteLoader(),
	} {
		m.Register(l)
	}
	return m
}

// Register associates a Loader with every extension it reports via
// Extensions, overriding any previously registered loader for that
// extension.
func (m *Manager) Register(l Loader) {
	for _, ext := range l.Extensions() {
		m.loaders[strings.ToLower(ext)] = l
	}
}

// WithRateLimit throttles concurrent file reads to at most n per
// second, with burst room for burst concurrent reads. A nil or
// zero-valued limiter means unbounded.
func (m *Manager) WithRateLimit(n float64, burst int) *Manager {
	if n <= 0 {
		m.limiter = nil
		return m
	}
	m.limiter = rate.NewLimiter(rate.Limit(n), burst)
	return m
}

// LoadDir walks root, loading every matched file concurrently, and
// returns each file's tabular document keyed by its path relative to
// root. A file that fails to load is omitted and logged, not fatal to
// the rest of the walk.
func (m *Manager) LoadDir(ctx context.Context, root string) (map[string]zoon.Value, error) {
	log := util.FromContext(ctx)

	paths, err := m.matchFiles(root)
	if err != nil {
		return nil, err
	}

	type result struct {
		relPath string
		doc     zoon.Value
		err     error
	}
	results := make([]result, len(paths))

	var wg sync.WaitGroup
	for i, relPath := range paths {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx); err != nil {
				results[i] = result{relPath: relPath, err: err}
				continue
			}
		}
		wg.Add(1)
		go func(i int, relPath string) {
			defer wg.Done()
			absPath := filepath.Join(root, relPath)
			loader, ok := m.loaders[strings.ToLower(filepath.Ext(relPath))]
			if !ok {
				return
			}
			doc, err := loader.Load(ctx, relPath, absPath)
			if err != nil {
				log.Warn("failed to load file", "path", relPath, "error", err)
				results[i] = result{relPath: relPath, err: err}
				return
			}
			results[i] = result{relPath: relPath, doc: doc}
		}(i, relPath)
	}
	wg.Wait()

	docs := make(map[string]zoon.Value, len(paths))
	for _, r := range results {
		if r.err != nil || r.relPath == "" {
			continue
		}
		docs[r.relPath] = r.doc
	}

	log.Debug("directory ingestion complete", "root", root, "files", len(paths), "loaded", len(docs))
	return docs, nil
}

func (m *Manager) matchFiles(root string) ([]string, error) {
	var matched []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if len(m.include) > 0 && !matchAny(m.include, rel) {
			return nil
		}
		if matchAny(m.exclude, rel) {
			return nil
		}
		if _, ok := m.loaders[strings.ToLower(filepath.Ext(rel))]; !ok {
			return nil
		}
		matched = append(matched, rel)
		return nil
	})
	return matched, err
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
