package cell

import "sort"

// Entry is a cell positioned in a row.
type Entry struct {
	Col   int
	Value Value
}

// Row is an ordered sequence of cells keyed by column index.
// Cells stay sorted by column and no two cells share a column.
type Row struct {
	Index int
	Cells []Entry
}

// NewRow returns an empty row at index.
func NewRow(index int) Row { return Row{Index: index} }

// RowOf builds a row with values at consecutive columns starting at 0.
func RowOf(index int, values ...Value) Row {
	r := Row{Index: index, Cells: make([]Entry, 0, len(values))}
	for i, v := range values {
		r.Cells = append(r.Cells, Entry{Col: i, Value: v})
	}
	return r
}

func (r *Row) search(col int) int {
	return sort.Search(len(r.Cells), func(i int) bool { return r.Cells[i].Col >= col })
}

// Get returns the cell at col.
func (r Row) Get(col int) (Value, bool) {
	i := r.search(col)
	if i < len(r.Cells) && r.Cells[i].Col == col {
		return r.Cells[i].Value, true
	}
	return Value{}, false
}

// Set stores v at col, replacing the previous cell.
func (r *Row) Set(col int, v Value) {
	i := r.search(col)
	if i < len(r.Cells) && r.Cells[i].Col == col {
		r.Cells[i].Value = v
		return
	}
	r.Cells = append(r.Cells, Entry{})
	copy(r.Cells[i+1:], r.Cells[i:])
	r.Cells[i] = Entry{Col: col, Value: v}
}

// Ptr returns a pointer to the cell at col, or nil.
func (r *Row) Ptr(col int) *Value {
	i := r.search(col)
	if i < len(r.Cells) && r.Cells[i].Col == col {
		return &r.Cells[i].Value
	}
	return nil
}

// Len is the number of stored cells.
func (r Row) Len() int { return len(r.Cells) }

// LastCol returns the largest column index, -1 for an empty row.
func (r Row) LastCol() int {
	if len(r.Cells) == 0 {
		return -1
	}
	return r.Cells[len(r.Cells)-1].Col
}

// Empty reports whether every cell is empty.
func (r Row) Empty() bool {
	for _, e := range r.Cells {
		if !e.Value.IsEmpty() {
			return false
		}
	}
	return true
}

// Clone returns a row that shares no cell slice with r.
func (r Row) Clone() Row {
	c := Row{Index: r.Index, Cells: make([]Entry, len(r.Cells))}
	copy(c.Cells, r.Cells)
	return c
}
