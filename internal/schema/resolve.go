package schema

import (
	"sort"

	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// Options filter and order the resolved columns.
type Options struct {
	IncludeNames   []string
	IncludeIndexes []int
	ExcludeNames   []string
	ExcludeIndexes []int
	// OrderByInclude orders columns by the include list and renumbers them from 0.
	// IncludeIndexes takes precedence over IncludeNames when both are set.
	OrderByInclude bool
	// AutoMergeHead groups equal header titles into merged spans.
	AutoMergeHead bool
}

func (o Options) includes() bool {
	return len(o.IncludeNames) > 0 || len(o.IncludeIndexes) > 0
}

func (o Options) keep(name string, col int) bool {
	if containsString(o.ExcludeNames, name) || containsInt(o.ExcludeIndexes, col) {
		return false
	}
	if !o.includes() {
		return true
	}
	return containsString(o.IncludeNames, name) || containsInt(o.IncludeIndexes, col)
}

// Resolve derives the column schema of shape. Resolving the same shape with
// the same options always yields an equal schema.
func Resolve(shape Shape, opts Options) (*Schema, error) {
	var fields []Field
	names := make(map[string]bool)
	claimed := make(map[int]string)
	for _, f := range shape.Fields {
		if f.Ignore {
			continue
		}
		if f.Name == "" {
			return nil, sheeterr.Newf(sheeterr.Schema, "shape %q: field without name", shape.Name)
		}
		if names[f.Name] {
			return nil, sheeterr.Newf(sheeterr.Schema, "shape %q: duplicate field", shape.Name).WithField(f.Name)
		}
		names[f.Name] = true
		if f.Index != nil {
			if *f.Index < 0 {
				return nil, sheeterr.Newf(sheeterr.Schema, "shape %q: negative column index %d", shape.Name, *f.Index).WithField(f.Name)
			}
			if other, ok := claimed[*f.Index]; ok {
				return nil, sheeterr.Newf(sheeterr.Schema, "shape %q: fields %q and %q share column %d", shape.Name, other, f.Name, *f.Index).WithField(f.Name)
			}
			claimed[*f.Index] = f.Name
		}
		fields = append(fields, f)
	}

	columns := make([]Column, 0, len(fields))
	next := 0
	for _, f := range fields {
		col := 0
		if f.Index != nil {
			col = *f.Index
		} else {
			for {
				if _, ok := claimed[next]; !ok {
					break
				}
				next++
			}
			col = next
			claimed[col] = f.Name
			next++
		}
		if opts.keep(f.Name, col) {
			columns = append(columns, Column{Field: f, Col: col})
		}
	}

	sort.SliceStable(columns, func(i, j int) bool { return columns[i].Col < columns[j].Col })
	if opts.OrderByInclude && opts.includes() {
		orderByInclude(columns, opts)
	}

	s := &Schema{Columns: columns}
	for _, c := range columns {
		if n := len(c.titles()); n > s.HeadDepth {
			s.HeadDepth = n
		}
	}
	for i := range s.Columns {
		s.Columns[i].Titles = pad(s.Columns[i].titles(), s.HeadDepth)
	}
	if opts.AutoMergeHead {
		s.HeadMerges = headMerges(s.Columns, s.HeadDepth)
	}
	return s, nil
}

func orderByInclude(columns []Column, opts Options) {
	rank := func(c Column) int {
		if len(opts.IncludeIndexes) > 0 {
			return indexOfInt(opts.IncludeIndexes, c.Col)
		}
		return indexOfString(opts.IncludeNames, c.Name)
	}
	sort.SliceStable(columns, func(i, j int) bool { return rank(columns[i]) < rank(columns[j]) })
	for i := range columns {
		columns[i].Col = i
	}
}

// pad repeats the last title so that every column has depth levels.
func pad(titles []string, depth int) []string {
	out := make([]string, depth)
	copy(out, titles)
	for i := len(titles); i < depth; i++ {
		out[i] = titles[len(titles)-1]
	}
	return out
}

// headMerges groups equal titles: horizontally across adjacent columns sharing
// the same title path up to the level, then downwards while the run keeps the title.
func headMerges(columns []Column, depth int) []cell.Region {
	type pos struct{ row, col int }
	covered := make(map[pos]bool)
	var merges []cell.Region
	for level := 0; level < depth; level++ {
		for i := 0; i < len(columns); i++ {
			if covered[pos{level, i}] {
				continue
			}
			title := columns[i].Titles[level]
			last := i
			for last+1 < len(columns) &&
				columns[last+1].Col == columns[last].Col+1 &&
				!covered[pos{level, last + 1}] &&
				equalStrings(columns[last+1].Titles[:level+1], columns[i].Titles[:level+1]) {
				last++
			}
			bottom := level
			for bottom+1 < depth {
				same := true
				for k := i; k <= last; k++ {
					if columns[k].Titles[bottom+1] != title || covered[pos{bottom + 1, k}] {
						same = false
						break
					}
				}
				if !same {
					break
				}
				bottom++
			}
			for r := level; r <= bottom; r++ {
				for k := i; k <= last; k++ {
					covered[pos{r, k}] = true
				}
			}
			if last > i || bottom > level {
				merges = append(merges, cell.Region{
					FirstRow: level,
					LastRow:  bottom,
					FirstCol: columns[i].Col,
					LastCol:  columns[last].Col,
				})
			}
			i = last
		}
	}
	return merges
}

func containsString(list []string, s string) bool { return indexOfString(list, s) >= 0 }

func containsInt(list []int, n int) bool { return indexOfInt(list, n) >= 0 }

func indexOfString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func indexOfInt(list []int, n int) int {
	for i, v := range list {
		if v == n {
			return i
		}
	}
	return -1
}
