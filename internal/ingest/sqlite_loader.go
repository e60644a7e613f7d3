package ingest

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/zoon-format/zoon"
	"github.com/zoon-format/zoon/internal/util"
)

// SQLiteLoader reads every user table of a .sqlite/.db/.sqlite3 file.
// Each table's rows are tagged with a "_table" column so a multi-table
// database round-trips into one ZOON document without collisions.
type SQLiteLoader struct {
	// MaxRowsPerTable caps how many rows are read per table. Zero
	// means unbounded.
	MaxRowsPerTable int
}

func NewSQLiteLoader() *SQLiteLoader { return &SQLiteLoader{} }

func (l *SQLiteLoader) Extensions() []string { return []string{".sqlite", ".db", ".sqlite3"} }

func (l *SQLiteLoader) Load(ctx context.Context, relPath string, absPath string) (zoon.Value, error) {
	log := util.FromContext(ctx)

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", absPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return zoon.Null, util.WrapError(err, "open sqlite database")
	}
	defer db.Close()

	tableRows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return zoon.Null, util.WrapError(err, "list sqlite tables")
	}
	defer tableRows.Close()

	var tables []string
	for tableRows.Next() {
		var name string
		if err := tableRows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}

	var rows []zoon.Value
	for _, table := range tables {
		tableRows, err := l.loadTable(ctx, db, table)
		if err != nil {
			log.Warn("skipping unreadable table", "path", relPath, "table", table, "error", err)
			continue
		}
		rows = append(rows, tableRows...)
	}

	log.Debug("loaded sqlite rows", "path", relPath, "tables", len(tables), "rows", len(rows))
	return rowsValue(rows), nil
}

func (l *SQLiteLoader) loadTable(ctx context.Context, db *sql.DB, table string) ([]zoon.Value, error) {
	r, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cols, err := r.Columns()
	if err != nil {
		return nil, err
	}

	var rows []zoon.Value
	for r.Next() {
		if l.MaxRowsPerTable > 0 && len(rows) >= l.MaxRowsPerTable {
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			continue
		}
		m := zoon.NewMap()
		m.Set("_table", zoon.StringValue(table))
		for i, c := range cols {
			m.Set(c, cellFromAny(vals[i]))
		}
		rows = append(rows, zoon.MapValue(m))
	}
	return rows, r.Err()
}
