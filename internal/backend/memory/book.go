// Package memory keeps documents as plain Go values. It implements every
// backend contract and records how it was driven.
package memory

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mohae/deepcopy"
	"gopkg.in/yaml.v3"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
)

// Book is an in-memory document.
type Book struct {
	mu     sync.Mutex
	sheets []*Sheet
	closed bool
}

// New returns an empty book.
func New() *Book { return &Book{} }

// Add appends a sheet holding rows and returns it.
func (b *Book) Add(name string, rows ...cell.Row) *Sheet {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := newSheet(name)
	for _, r := range rows {
		s.rows[r.Index] = r.Clone()
	}
	b.sheets = append(b.sheets, s)
	return s
}

// Get returns the sheet called name, nil if absent.
func (b *Book) Get(name string) *Sheet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.get(name)
}

func (b *Book) get(name string) *Sheet {
	for _, s := range b.sheets {
		if s.name == name {
			return s
		}
	}
	return nil
}

// Closed reports whether Close was called.
func (b *Book) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Book) Sheets() []backend.SheetInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	infos := make([]backend.SheetInfo, len(b.sheets))
	for i, s := range b.sheets {
		infos[i] = backend.SheetInfo{Name: s.name, Index: i}
	}
	return infos
}

func (b *Book) Visit(ctx context.Context, sheet string, visit func(row cell.Row) error) error {
	s := b.Get(sheet)
	if s == nil {
		return backend.Contentf("sheet %q not found", sheet)
	}
	for _, r := range s.Rows() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mu.Lock()
		s.visited++
		s.mu.Unlock()
		if err := visit(r); err != nil {
			return err
		}
	}
	return nil
}

// NewSheet returns the sheet called name, creating it when absent.
func (b *Book) NewSheet(name string) (backend.SheetSink, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s := b.get(name); s != nil {
		return s, nil
	}
	s := newSheet(name)
	b.sheets = append(b.sheets, s)
	return s, nil
}

func (b *Book) EditSheet(name string) (backend.TemplateSheet, error) {
	if s := b.Get(name); s != nil {
		return s, nil
	}
	return nil, backend.Contentf("sheet %q not found", name)
}

type dump struct {
	Name   string                      `yaml:"name"`
	Rows   map[int]map[int]interface{} `yaml:"rows,omitempty"`
	Merges []string                    `yaml:"merges,omitempty"`
}

// Save writes a YAML dump of the plain cell text of every sheet.
func (b *Book) Save(w io.Writer) error {
	b.mu.Lock()
	sheets := append([]*Sheet(nil), b.sheets...)
	b.mu.Unlock()

	out := make([]dump, 0, len(sheets))
	for _, s := range sheets {
		d := dump{Name: s.name, Rows: make(map[int]map[int]interface{})}
		for _, r := range s.Rows() {
			cells := make(map[int]interface{}, r.Len())
			for _, e := range r.Cells {
				cells[e.Col] = e.Value.PlainText()
			}
			d.Rows[r.Index] = cells
		}
		merges, _ := s.Merges()
		for _, m := range merges {
			d.Merges = append(d.Merges, m.String())
		}
		out = append(out, d)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("save memory book: %w", err)
	}
	return nil
}

func (b *Book) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Sheet is one in-memory sheet.
type Sheet struct {
	mu        sync.Mutex
	name      string
	rows      map[int]cell.Row
	merges    []cell.Region
	widths    map[int]float64
	dimension *cell.Region
	visited   int
	batches   int
	closed    bool
}

func newSheet(name string) *Sheet {
	return &Sheet{name: name, rows: make(map[int]cell.Row), widths: make(map[int]float64)}
}

func (s *Sheet) Name() string { return s.name }

// Rows returns copies of the stored rows ordered by index.
func (s *Sheet) Rows() []cell.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]cell.Row, 0, len(s.rows))
	for _, r := range s.rows {
		rows = append(rows, r.Clone())
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	return rows
}

// Value returns the cell at row/col, None when empty.
func (s *Sheet) Value(row, col int) cell.Value {
	v, _ := s.Cell(row, col)
	return v
}

// Visited is the number of rows pushed by Visit.
func (s *Sheet) Visited() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visited
}

// Batches is the number of WriteRows calls.
func (s *Sheet) Batches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches
}

// Widths returns the column widths set so far.
func (s *Sheet) Widths() map[int]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := make(map[int]float64, len(s.widths))
	for k, v := range s.widths {
		w[k] = v
	}
	return w
}

// Declared returns the dimension set by SetDimension.
func (s *Sheet) Declared() (cell.Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == nil {
		return cell.Region{}, false
	}
	return *s.dimension, true
}

// Closed reports whether the sink was closed.
func (s *Sheet) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Sheet) SetColumnWidth(col int, width float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widths[col] = width
	return nil
}

func (s *Sheet) WriteRows(rows []cell.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.Contentf("sheet %q is closed", s.name)
	}
	s.batches++
	for _, r := range rows {
		s.rows[r.Index] = r.Clone()
	}
	return nil
}

func (s *Sheet) Merge(r cell.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merges = append(s.merges, r)
	return nil
}

func (s *Sheet) SetDimension(r cell.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = &r
	return nil
}

func (s *Sheet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Sheet) Dimension() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, r := range s.rows {
		if idx+1 > rows {
			rows = idx + 1
		}
		if c := r.LastCol() + 1; c > cols {
			cols = c
		}
	}
	return
}

func (s *Sheet) Cell(row, col int) (cell.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[row]
	if !ok {
		return cell.None(), nil
	}
	v, _ := r.Get(col)
	return v, nil
}

func (s *Sheet) SetCell(row, col int, v cell.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[row]
	if !ok {
		r = cell.NewRow(row)
	}
	if v.Style == 0 {
		if old, ok := r.Get(col); ok {
			v.Style = old.Style
		}
	}
	r.Set(col, v)
	s.rows[row] = r
	return nil
}

func (s *Sheet) InsertRows(row, n int) error {
	if n <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	shifted := make(map[int]cell.Row, len(s.rows)+n)
	for idx, r := range s.rows {
		if idx > row {
			r.Index = idx + n
			shifted[idx+n] = r
			continue
		}
		shifted[idx] = r
	}
	if anchor, ok := s.rows[row]; ok {
		for i := 1; i <= n; i++ {
			c := deepcopy.Copy(anchor).(cell.Row)
			c.Index = row + i
			shifted[row+i] = c
		}
	}
	s.rows = shifted
	return nil
}

func (s *Sheet) Merges() ([]cell.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cell.Region(nil), s.merges...), nil
}

func (s *Sheet) SetMerges(regions []cell.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merges = append([]cell.Region(nil), regions...)
	return nil
}
