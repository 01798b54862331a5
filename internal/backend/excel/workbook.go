package excel

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
)

// Workbook writes sheets through excelize stream writers.
type Workbook struct {
	file   *excelize.File
	styles *styles
	sheets []*streamSheet
}

// NewWorkbook returns an empty document. The default sheet is renamed by the
// first NewSheet call.
func NewWorkbook() *Workbook {
	f := excelize.NewFile()
	return &Workbook{file: f, styles: newStyles(f)}
}

func (w *Workbook) NewSheet(name string) (backend.SheetSink, error) {
	for _, s := range w.sheets {
		if s.name == name {
			return nil, backend.Contentf("sheet %s already created", name)
		}
	}
	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(w.file.GetSheetName(0), name); err != nil {
			return nil, backend.Contentf("rename default sheet to %s: %s", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return nil, backend.Contentf("new sheet %s: %s", name, err)
	}
	sw, err := w.file.NewStreamWriter(name)
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("stream writer of sheet %s: %w", name, err))
	}
	s := &streamSheet{book: w, name: name, stream: sw, lastRow: -1}
	w.sheets = append(w.sheets, s)
	return s, nil
}

// Save flushes the sheets left open and writes the document to out.
// Stream writers emit the worksheet header before any row, so declared
// dimensions are applied to the flushed document.
func (w *Workbook) Save(out io.Writer) error {
	dimensions := make(map[string]string)
	for _, s := range w.sheets {
		if err := s.Close(); err != nil {
			return err
		}
		if s.dimension != nil {
			dimensions[s.name] = axis(s.dimension.FirstRow, s.dimension.FirstCol) + ":" + axis(s.dimension.LastRow, s.dimension.LastCol)
		}
	}
	if len(dimensions) == 0 {
		if err := w.file.Write(out); err != nil {
			return backend.Structural(fmt.Errorf("write document: %w", err))
		}
		return nil
	}

	var buf bytes.Buffer
	if err := w.file.Write(&buf); err != nil {
		return backend.Structural(fmt.Errorf("write document: %w", err))
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		return backend.Structural(fmt.Errorf("reopen document: %w", err))
	}
	defer f.Close()
	for _, s := range w.sheets {
		ref, ok := dimensions[s.name]
		if !ok {
			continue
		}
		if err = f.SetSheetDimension(s.name, ref); err != nil {
			return backend.Contentf("sheet %s: dimension %s: %s", s.name, ref, err)
		}
	}
	if err = f.Write(out); err != nil {
		return backend.Structural(fmt.Errorf("write document: %w", err))
	}
	return nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

type picture struct {
	row, col int
	image    *cell.Image
}

type streamSheet struct {
	book      *Workbook
	name      string
	stream    *excelize.StreamWriter
	lastRow   int
	pictures  []picture
	dimension *cell.Region
	closed    bool
}

func (s *streamSheet) SetColumnWidth(col int, width float64) error {
	if s.lastRow >= 0 {
		return backend.Contentf("sheet %s: column width after rows", s.name)
	}
	if err := s.stream.SetColWidth(col+1, col+1, width); err != nil {
		return backend.Contentf("sheet %s: column width: %s", s.name, err)
	}
	return nil
}

func (s *streamSheet) WriteRows(rows []cell.Row) error {
	if s.closed {
		return backend.Contentf("sheet %s is closed", s.name)
	}
	for _, r := range rows {
		if r.Index <= s.lastRow {
			return backend.Contentf("sheet %s: row %d written after row %d", s.name, r.Index+1, s.lastRow+1)
		}
		if r.Len() == 0 {
			continue
		}
		values := make([]interface{}, r.LastCol()+1)
		for _, e := range r.Cells {
			v, err := s.streamValue(r.Index, e.Col, e.Value)
			if err != nil {
				return err
			}
			values[e.Col] = v
		}
		if err := s.stream.SetRow(axis(r.Index, 0), values); err != nil {
			return backend.Contentf("sheet %s: write row %d: %s", s.name, r.Index+1, err)
		}
		s.lastRow = r.Index
	}
	return nil
}

func (s *streamSheet) streamValue(row, col int, v cell.Value) (interface{}, error) {
	style, err := s.book.styles.styleOf(v)
	if err != nil {
		return nil, backend.Contentf("sheet %s: style %q: %s", s.name, v.Format, err)
	}
	c := excelize.Cell{StyleID: style}
	switch v.Kind {
	case cell.KindNone:
		if style == 0 {
			return nil, nil
		}
	case cell.KindText:
		c.Value = v.Text
	case cell.KindNumber:
		c.Value = v.Number
	case cell.KindBoolean:
		c.Value = v.Bool
	case cell.KindTemporal:
		c.Value = v.Time
	case cell.KindRichText:
		c.Value = richRuns(v.Runs)
	case cell.KindFormula:
		c.Formula = v.Text
	case cell.KindImage:
		if v.Image != nil {
			s.pictures = append(s.pictures, picture{row: row, col: col, image: v.Image})
		}
		if style == 0 {
			return nil, nil
		}
	}
	return c, nil
}

func (s *streamSheet) Merge(r cell.Region) error {
	if err := s.stream.MergeCell(axis(r.FirstRow, r.FirstCol), axis(r.LastRow, r.LastCol)); err != nil {
		return backend.Contentf("sheet %s: merge %s: %s", s.name, r, err)
	}
	return nil
}

func (s *streamSheet) SetDimension(r cell.Region) error {
	s.dimension = &r
	return nil
}

// Close embeds pictures into the streamed worksheet, then flushes it.
// Nothing can be added after the flush.
func (s *streamSheet) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, p := range s.pictures {
		if err := s.book.file.AddPictureFromBytes(s.name, axis(p.row, p.col), pictureOf(p.image)); err != nil {
			return backend.Contentf("sheet %s: picture at %s: %s", s.name, axis(p.row, p.col), err)
		}
	}
	if err := s.stream.Flush(); err != nil {
		return backend.Structural(fmt.Errorf("flush sheet %s: %w", s.name, err))
	}
	return nil
}
