package schema

import (
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// Dynamic builds a string schema from header titles keyed by column.
// Untitled columns are named by their column letter, repeated titles get the letter appended.
func Dynamic(head map[int]string) *Schema {
	cols := make([]int, 0, len(head))
	for col := range head {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	s := &Schema{HeadDepth: 1}
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		letter, _ := excelize.ColumnNumberToName(col + 1)
		name := head[col]
		switch {
		case name == "":
			name = letter
		case seen[name]:
			name = name + "_" + letter
		}
		seen[name] = true
		s.Columns = append(s.Columns, Column{
			Field:  Field{Name: name, Type: convert.TypeString},
			Col:    col,
			Titles: []string{head[col]},
		})
	}
	return s
}

// Rebind binds fields without an explicit index to the column whose header
// title equals the field's leaf title. Fields whose title is absent from the
// header are dropped and returned as missing.
func (s *Schema) Rebind(head map[int]string) (bound *Schema, missing []string, err error) {
	byTitle := make(map[string]int, len(head))
	for col, title := range head {
		if prev, ok := byTitle[title]; !ok || col < prev {
			byTitle[title] = col
		}
	}

	bound = &Schema{HeadDepth: s.HeadDepth, HeadMerges: s.HeadMerges}
	owner := make(map[int]string, len(s.Columns))
	for _, c := range s.Columns {
		if c.Explicit() {
			owner[c.Col] = c.Name
		}
	}
	for _, c := range s.Columns {
		if !c.Explicit() {
			col, ok := byTitle[c.Titles[len(c.Titles)-1]]
			if !ok {
				missing = append(missing, c.Name)
				continue
			}
			if other, taken := owner[col]; taken {
				err = sheeterr.Newf(sheeterr.Schema, "fields %q and %q bind to column %d", other, c.Name, col).WithField(c.Name)
				return
			}
			owner[col] = c.Name
			c.Col = col
		}
		bound.Columns = append(bound.Columns, c)
	}
	sort.SliceStable(bound.Columns, func(i, j int) bool { return bound.Columns[i].Col < bound.Columns[j].Col })
	return
}
