// Package tealeg is the xlsx backend built on tealeg/xlsx. Reads yield typed
// cells, writes build the document in memory.
package tealeg

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v3"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
)

// Option configures how a document is opened.
type Option func(o *options)

type options struct {
	file []xlsx.FileOption
}

// WithDiskCellStore keeps cells on disk instead of memory while reading.
func WithDiskCellStore() Option {
	return func(o *options) {
		o.file = append(o.file, xlsx.UseDiskVCellStore)
	}
}

// WithRowLimit stops reading each sheet after n rows.
func WithRowLimit(n int) Option {
	return func(o *options) {
		o.file = append(o.file, xlsx.RowLimit(n))
	}
}

// Reader visits typed cells of an opened document.
type Reader struct {
	file *xlsx.File
}

// Open opens the document at path.
func Open(path string, opts ...Option) (*Reader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	f, err := xlsx.OpenFile(path, o.file...)
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("open %s: %w", path, err))
	}
	return &Reader{file: f}, nil
}

// OpenBinary opens the document held in data.
func OpenBinary(data []byte, opts ...Option) (*Reader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	f, err := xlsx.OpenBinary(data, o.file...)
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("open binary: %w", err))
	}
	return &Reader{file: f}, nil
}

func (r *Reader) Sheets() []backend.SheetInfo {
	infos := make([]backend.SheetInfo, len(r.file.Sheets))
	for i, s := range r.file.Sheets {
		infos[i] = backend.SheetInfo{Name: s.Name, Index: i}
	}
	return infos
}

// Date1904 reports whether serial dates of the document use the 1904 system.
func (r *Reader) Date1904() bool { return r.file.Date1904 }

func (r *Reader) Visit(ctx context.Context, sheet string, visit func(row cell.Row) error) error {
	sh, ok := r.file.Sheet[sheet]
	if !ok {
		return backend.Contentf("sheet %s not found", sheet)
	}
	var stop error
	err := sh.ForEachRow(func(xr *xlsx.Row) error {
		if err := ctx.Err(); err != nil {
			stop = err
			return err
		}
		row := cell.NewRow(xr.GetCoordinate())
		err := xr.ForEachCell(func(c *xlsx.Cell) error {
			col, _ := c.GetCoordinates()
			v, err := r.value(c)
			if err != nil {
				return backend.Contentf("sheet %s: row %d column %d: %s", sheet, row.Index+1, col+1, err)
			}
			if !v.IsEmpty() {
				row.Set(col, v)
			}
			return nil
		}, xlsx.SkipEmptyCells)
		if err != nil {
			return err
		}
		if err = visit(row); err != nil {
			stop = err
		}
		return err
	}, xlsx.SkipEmptyRows)
	if stop != nil {
		return stop
	}
	return err
}

func (r *Reader) value(c *xlsx.Cell) (cell.Value, error) {
	switch c.Type() {
	case xlsx.CellTypeBool:
		return cell.Bool(c.Bool()), nil
	case xlsx.CellTypeNumeric, xlsx.CellTypeDate:
		if c.Value == "" {
			return cell.None(), nil
		}
		if c.IsTime() {
			t, err := c.GetTime(r.file.Date1904)
			if err != nil {
				return cell.Value{}, err
			}
			return cell.Temporal(t, c.GetNumberFormat()), nil
		}
		f, err := c.Float()
		if err != nil {
			return cell.Text(c.Value), nil
		}
		return cell.Number(f), nil
	}
	if len(c.RichText) > 0 {
		return cell.Rich(cellRuns(c.RichText)...), nil
	}
	return cell.Text(c.Value), nil
}

func (r *Reader) Close() error {
	for _, s := range r.file.Sheets {
		s.Close()
	}
	return nil
}

// Workbook builds a document in memory and writes it on Save.
type Workbook struct {
	file *xlsx.File
}

// NewWorkbook returns an empty document.
func NewWorkbook() *Workbook {
	return &Workbook{file: xlsx.NewFile()}
}

func (w *Workbook) NewSheet(name string) (backend.SheetSink, error) {
	sh, err := w.file.AddSheet(name)
	if err != nil {
		return nil, backend.Contentf("new sheet %s: %s", name, err)
	}
	return &sheetSink{sheet: sh}, nil
}

func (w *Workbook) Save(out io.Writer) error {
	if err := w.file.Write(out); err != nil {
		return backend.Structural(fmt.Errorf("write document: %w", err))
	}
	return nil
}

func (w *Workbook) Close() error { return nil }

type sheetSink struct {
	sheet *xlsx.Sheet
}

func (s *sheetSink) SetColumnWidth(col int, width float64) error {
	s.sheet.SetColWidth(col+1, col+1, width)
	return nil
}

func (s *sheetSink) WriteRows(rows []cell.Row) error {
	for _, r := range rows {
		xr, err := s.sheet.Row(r.Index)
		if err != nil {
			return backend.Contentf("sheet %s: row %d: %s", s.sheet.Name, r.Index+1, err)
		}
		for _, e := range r.Cells {
			if err = setValue(xr.GetCell(e.Col), e.Value); err != nil {
				return backend.Contentf("sheet %s: row %d column %d: %s", s.sheet.Name, r.Index+1, e.Col+1, err)
			}
		}
	}
	return nil
}

func setValue(c *xlsx.Cell, v cell.Value) error {
	switch v.Kind {
	case cell.KindNone:
		return nil
	case cell.KindText:
		c.SetString(v.Text)
	case cell.KindNumber:
		c.SetFloat(v.Number)
		if v.Format != "" {
			c.SetFormat(v.Format)
		}
	case cell.KindBoolean:
		c.SetBool(v.Bool)
	case cell.KindTemporal:
		opts := xlsx.DateTimeOptions{Location: v.Time.Location(), ExcelTimeFormat: v.Format}
		if opts.ExcelTimeFormat == "" {
			opts.ExcelTimeFormat = xlsx.DefaultDateTimeFormat
		}
		c.SetDateWithOptions(v.Time, opts)
	case cell.KindRichText:
		c.SetRichText(xlsxRuns(v.Runs))
	case cell.KindFormula:
		c.SetFormula(v.Text)
	case cell.KindImage:
		return fmt.Errorf("images are not supported by this backend")
	}
	return nil
}

func (s *sheetSink) Merge(r cell.Region) error {
	c, err := s.sheet.Cell(r.FirstRow, r.FirstCol)
	if err != nil {
		return backend.Contentf("sheet %s: merge %s: %s", s.sheet.Name, r, err)
	}
	c.Merge(r.LastCol-r.FirstCol, r.LastRow-r.FirstRow)
	return nil
}

// SetDimension is implied: the dimension is computed when the document is written.
func (s *sheetSink) SetDimension(cell.Region) error { return nil }

func (s *sheetSink) Close() error { return nil }

func cellRuns(runs []xlsx.RichTextRun) []cell.RichTextRun {
	out := make([]cell.RichTextRun, len(runs))
	for i, r := range runs {
		out[i] = cell.RichTextRun{Text: r.Text}
		if f := r.Font; f != nil {
			out[i].Font = &cell.Font{Family: f.Name, Size: f.Size, Bold: f.Bold, Italic: f.Italic}
		}
	}
	return out
}

func xlsxRuns(runs []cell.RichTextRun) []xlsx.RichTextRun {
	out := make([]xlsx.RichTextRun, len(runs))
	for i, r := range runs {
		out[i] = xlsx.RichTextRun{Text: r.Text}
		if f := r.Font; f != nil {
			out[i].Font = &xlsx.RichTextFont{Name: f.Family, Size: f.Size, Bold: f.Bold, Italic: f.Italic}
			if color, ok := argb(f.Color); ok {
				out[i].Font.Color = color
			}
		}
	}
	return out
}

// argb parses RRGGBB or AARRGGBB.
func argb(hex string) (*xlsx.RichTextColor, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 6 {
		hex = "FF" + hex
	}
	if len(hex) != 8 {
		return nil, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return xlsx.NewRichTextColorFromARGB(int(n>>24&0xff), int(n>>16&0xff), int(n>>8&0xff), int(n&0xff)), true
}
