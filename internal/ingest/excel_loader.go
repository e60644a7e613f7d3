package ingest

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/zoon-format/zoon"
	"github.com/zoon-format/zoon/internal/util"
)

// ExcelLoader reads .xlsx/.xlsm workbooks. Every sheet's rows are
// concatenated into a single row set, keyed by that sheet's own header
// row (or a generated column letter, for headerless columns).
type ExcelLoader struct{}

func NewExcelLoader() *ExcelLoader { return &ExcelLoader{} }

func (l *ExcelLoader) Extensions() []string { return []string{".xlsx", ".xlsm"} }

func (l *ExcelLoader) Load(ctx context.Context, relPath string, absPath string) (zoon.Value, error) {
	log := util.FromContext(ctx)

	f, err := excelize.OpenFile(absPath)
	if err != nil {
		return zoon.Null, util.WrapError(err, "open excel workbook")
	}
	defer f.Close()

	var rows []zoon.Value
	for _, sheet := range f.GetSheetList() {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			log.Warn("skipping unreadable sheet", "path", relPath, "sheet", sheet, "error", err)
			continue
		}
		if len(sheetRows) == 0 {
			continue
		}
		headers := sheetRows[0]
		for _, raw := range sheetRows[1:] {
			row := make(map[string]string, len(headers))
			for i, cell := range raw {
				key := ""
				if i < len(headers) && headers[i] != "" {
					key = headers[i]
				} else if col, err := excelize.ColumnNumberToName(i + 1); err == nil {
					key = col
				}
				row[key] = cell
			}
			rows = append(rows, rowFromTextMap(row))
		}
	}

	log.Debug("loaded excel rows", "path", relPath, "rows", len(rows))
	return rowsValue(rows), nil
}

// WriteExcel writes a ZOON tabular (list-of-maps) document out as a
// single-sheet .xlsx workbook at absPath, one column per union of
// row keys (in first-seen order) and one row per list element.
func WriteExcel(doc zoon.Value, absPath string) error {
	if doc.Kind != zoon.KindList {
		return util.NewError("WriteExcel requires a tabular (list-of-maps) document")
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	var headers []string
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
		}
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for r, row := range doc.List {
		if row.Kind != zoon.KindMap {
			continue
		}
		for i, h := range headers {
			v, ok := row.Map.Get(h)
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			f.SetCellValue(sheet, cell, zoon.ToAny(v))
		}
	}

	if err := f.SaveAs(absPath); err != nil {
		return util.WrapError(err, "write excel workbook")
	}
	return nil
}
