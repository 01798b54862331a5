package schema

import (
	"github.com/geoirb/sheetbind/internal/cell"
)

// Column is a field bound to its column index.
type Column struct {
	Field
	// Col is the zero-based column of the field.
	Col int
	// Titles is the header path padded to the schema head depth.
	Titles []string
}

// Schema is the resolved ordered mapping from fields to columns.
type Schema struct {
	Columns []Column
	// HeadDepth is the number of header rows.
	HeadDepth int
	// HeadMerges are the header spans, rows relative to the first header row.
	HeadMerges []cell.Region
}

// Column returns the column bound to field name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ByIndex returns the column at zero-based col.
func (s *Schema) ByIndex(col int) (Column, bool) {
	for _, c := range s.Columns {
		if c.Col == col {
			return c, true
		}
	}
	return Column{}, false
}

// Titles returns the leaf title of every column in output order.
func (s *Schema) Titles() []string {
	titles := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		if n := len(c.Titles); n > 0 {
			titles[i] = c.Titles[n-1]
		}
	}
	return titles
}

// LastCol is the largest column index, -1 for an empty schema.
func (s *Schema) LastCol() int {
	last := -1
	for _, c := range s.Columns {
		if c.Col > last {
			last = c.Col
		}
	}
	return last
}

// HeadRows renders the header as text rows starting at row first.
// Cells covered by a head merge other than its top-left one are left out.
func (s *Schema) HeadRows(first int) []cell.Row {
	rows := make([]cell.Row, s.HeadDepth)
	for level := range rows {
		rows[level] = cell.NewRow(first + level)
		for _, c := range s.Columns {
			if s.covered(level, c.Col) {
				continue
			}
			rows[level].Set(c.Col, cell.Text(c.Titles[level]))
		}
	}
	return rows
}

func (s *Schema) covered(row, col int) bool {
	for _, m := range s.HeadMerges {
		if m.Contains(row, col) && (row != m.FirstRow || col != m.FirstCol) {
			return true
		}
	}
	return false
}

// Equal reports whether both schemas bind the same fields to the same columns
// with the same conversion and header.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.HeadDepth != o.HeadDepth || len(s.Columns) != len(o.Columns) {
		return false
	}
	for i, c := range s.Columns {
		d := o.Columns[i]
		if c.Name != d.Name || c.Col != d.Col || c.Spec() != d.Spec() || !equalStrings(c.Titles, d.Titles) {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
