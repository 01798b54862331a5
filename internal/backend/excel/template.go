package excel

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
)

// Template edits an existing document in place.
type Template struct {
	file   *excelize.File
	styles *styles
	sheets map[string]*templateSheet
}

// OpenTemplate reads a template document from r.
func OpenTemplate(r io.Reader) (*Template, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("open template: %w", err))
	}
	return newTemplate(f), nil
}

// OpenTemplateFile opens the template document at path.
func OpenTemplateFile(path string) (*Template, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("open template %s: %w", path, err))
	}
	return newTemplate(f), nil
}

func newTemplate(f *excelize.File) *Template {
	return &Template{file: f, styles: newStyles(f), sheets: make(map[string]*templateSheet)}
}

func (t *Template) Sheets() []backend.SheetInfo {
	return sheetInfos(t.file)
}

// EditSheet lifts the merges of sheet out of the document so that row
// insertion leaves them alone; they come back with SetMerges or Save.
func (t *Template) EditSheet(name string) (backend.TemplateSheet, error) {
	if s, ok := t.sheets[name]; ok {
		return s, nil
	}
	if idx, err := t.file.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, backend.Contentf("sheet %s not found", name)
	}
	merged, err := t.file.GetMergeCells(name)
	if err != nil {
		return nil, backend.Structural(fmt.Errorf("merge cells of sheet %s: %w", name, err))
	}
	s := &templateSheet{template: t, name: name, pending: true}
	for _, m := range merged {
		r, err := regionOf(m.GetStartAxis(), m.GetEndAxis())
		if err != nil {
			return nil, backend.Structural(fmt.Errorf("sheet %s: %w", name, err))
		}
		if err = t.file.UnmergeCell(name, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return nil, backend.Contentf("sheet %s: unmerge %s: %s", name, r, err)
		}
		s.merges = append(s.merges, r)
	}
	t.sheets[name] = s
	return s, nil
}

// Save writes the document, restoring merges not yet applied.
func (t *Template) Save(w io.Writer) error {
	for _, s := range t.sheets {
		if s.pending {
			if err := s.SetMerges(s.merges); err != nil {
				return err
			}
		}
	}
	if err := t.file.Write(w); err != nil {
		return backend.Structural(fmt.Errorf("write document: %w", err))
	}
	return nil
}

func (t *Template) Close() error {
	return t.file.Close()
}

func regionOf(start, end string) (r cell.Region, err error) {
	c1, r1, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return
	}
	c2, r2, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return
	}
	r = cell.Region{FirstRow: r1 - 1, LastRow: r2 - 1, FirstCol: c1 - 1, LastCol: c2 - 1}
	return
}

type templateSheet struct {
	template *Template
	name     string
	merges   []cell.Region
	applied  []cell.Region
	pending  bool
}

func (s *templateSheet) Name() string { return s.name }

func (s *templateSheet) Dimension() (rows, cols int) {
	all, err := s.template.file.GetRows(s.name)
	if err != nil {
		return 0, 0
	}
	rows = len(all)
	for _, r := range all {
		if len(r) > cols {
			cols = len(r)
		}
	}
	return
}

func (s *templateSheet) Cell(row, col int) (v cell.Value, err error) {
	f, ref := s.template.file, axis(row, col)
	style, err := f.GetCellStyle(s.name, ref)
	if err != nil {
		return v, backend.Contentf("sheet %s: style of %s: %s", s.name, ref, err)
	}
	defer func() { v.Style = style }()

	if formula, _ := f.GetCellFormula(s.name, ref); formula != "" {
		return cell.Formula(formula), nil
	}
	typ, err := f.GetCellType(s.name, ref)
	if err != nil {
		return v, backend.Contentf("sheet %s: type of %s: %s", s.name, ref, err)
	}
	raw, err := f.GetCellValue(s.name, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return v, backend.Contentf("sheet %s: value of %s: %s", s.name, ref, err)
	}
	switch typ {
	case excelize.CellTypeBool:
		return cell.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		runs, err := f.GetCellRichText(s.name, ref)
		if err == nil && (len(runs) > 1 || (len(runs) == 1 && runs[0].Font != nil)) {
			return cell.Rich(cellRuns(runs)...), nil
		}
		return cell.Text(raw), nil
	}
	if raw == "" {
		return cell.None(), nil
	}
	if n, perr := strconv.ParseFloat(raw, 64); perr == nil && typ != excelize.CellTypeError {
		return cell.Number(n), nil
	}
	return cell.Text(raw), nil
}

func (s *templateSheet) SetCell(row, col int, v cell.Value) (err error) {
	f, ref := s.template.file, axis(row, col)
	defer func() {
		if err != nil {
			err = backend.Contentf("sheet %s: set %s: %s", s.name, ref, err)
		}
	}()

	style := v.Style
	if style == 0 && v.Format != "" {
		current, _ := f.GetCellStyle(s.name, ref)
		if current == 0 {
			if style, err = s.template.styles.numFmt(v.Format); err != nil {
				return
			}
		}
	}
	if style != 0 {
		if err = f.SetCellStyle(s.name, ref, ref, style); err != nil {
			return
		}
	}

	switch v.Kind {
	case cell.KindNone:
		err = f.SetCellValue(s.name, ref, nil)
	case cell.KindText:
		err = f.SetCellStr(s.name, ref, v.Text)
	case cell.KindNumber:
		err = f.SetCellFloat(s.name, ref, v.Number, -1, 64)
	case cell.KindBoolean:
		err = f.SetCellBool(s.name, ref, v.Bool)
	case cell.KindTemporal:
		err = f.SetCellValue(s.name, ref, v.Time)
	case cell.KindRichText:
		err = f.SetCellRichText(s.name, ref, richRuns(v.Runs))
	case cell.KindFormula:
		err = f.SetCellFormula(s.name, ref, v.Text)
	case cell.KindImage:
		if err = f.SetCellValue(s.name, ref, nil); err != nil || v.Image == nil {
			return
		}
		err = f.AddPictureFromBytes(s.name, ref, pictureOf(v.Image))
	}
	return
}

func (s *templateSheet) InsertRows(row, n int) error {
	for i := 1; i <= n; i++ {
		if err := s.template.file.DuplicateRowTo(s.name, row+1, row+1+i); err != nil {
			return backend.Contentf("sheet %s: duplicate row %d: %s", s.name, row+1, err)
		}
	}
	return nil
}

func (s *templateSheet) Merges() ([]cell.Region, error) {
	return append([]cell.Region(nil), s.merges...), nil
}

func (s *templateSheet) SetMerges(regions []cell.Region) error {
	f := s.template.file
	for _, r := range s.applied {
		if err := f.UnmergeCell(s.name, axis(r.FirstRow, r.FirstCol), axis(r.LastRow, r.LastCol)); err != nil {
			return backend.Contentf("sheet %s: unmerge %s: %s", s.name, r, err)
		}
	}
	s.applied = nil
	for _, r := range regions {
		if err := f.MergeCell(s.name, axis(r.FirstRow, r.FirstCol), axis(r.LastRow, r.LastCol)); err != nil {
			return backend.Contentf("sheet %s: merge %s: %s", s.name, r, err)
		}
		s.applied = append(s.applied, r)
	}
	s.merges = append([]cell.Region(nil), regions...)
	s.pending = false
	return nil
}
