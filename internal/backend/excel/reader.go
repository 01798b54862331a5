// Package excel is the xlsx backend built on excelize.
package excel

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
)

// Reader streams rows with the excelize rows iterator. Cells are delivered as
// raw text, number formats are not applied.
type Reader struct {
	file *excelize.File
}

// Open opens the document at path for reading.
func Open(path string) (*Reader, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("open %s: %w", path, err))
	}
	return &Reader{file: f}, nil
}

// OpenReader reads the document from r.
func OpenReader(r io.Reader) (*Reader, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("open reader: %w", err))
	}
	return &Reader{file: f}, nil
}

func (r *Reader) Sheets() []backend.SheetInfo {
	return sheetInfos(r.file)
}

// Date1904 reports whether serial dates of the document use the 1904 system.
func (r *Reader) Date1904() bool {
	props, err := r.file.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

func (r *Reader) Visit(ctx context.Context, sheet string, visit func(row cell.Row) error) (err error) {
	rows, err := r.file.Rows(sheet)
	if err != nil {
		return backend.Structural(fmt.Errorf("rows iterator of sheet %s: %w", sheet, err))
	}
	defer rows.Close()

	for idx := 0; rows.Next(); idx++ {
		if err = ctx.Err(); err != nil {
			return
		}
		var columns []string
		if columns, err = rows.Columns(excelize.Options{RawCellValue: true}); err != nil {
			return backend.Structural(fmt.Errorf("read row %d of sheet %s: %w", idx+1, sheet, err))
		}
		row := cell.Row{Index: idx, Cells: make([]cell.Entry, 0, len(columns))}
		for col, text := range columns {
			if text == "" {
				continue
			}
			row.Cells = append(row.Cells, cell.Entry{Col: col, Value: cell.Text(text)})
		}
		if err = visit(row); err != nil {
			return
		}
	}
	if err = rows.Error(); err != nil {
		return backend.Structural(fmt.Errorf("rows iterator of sheet %s: %w", sheet, err))
	}
	return
}

func (r *Reader) Close() error {
	return r.file.Close()
}

func sheetInfos(f *excelize.File) []backend.SheetInfo {
	names := f.GetSheetList()
	infos := make([]backend.SheetInfo, len(names))
	for i, name := range names {
		infos[i] = backend.SheetInfo{Name: name, Index: i}
	}
	return infos
}
