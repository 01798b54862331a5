package cell

import (
	"fmt"
	"sort"
)

// Region is a rectangular merge, zero-based and inclusive.
type Region struct {
	FirstRow int
	LastRow  int
	FirstCol int
	LastCol  int
}

// Valid reports whether the region is well formed.
func (r Region) Valid() bool {
	return r.FirstRow >= 0 && r.FirstCol >= 0 && r.FirstRow <= r.LastRow && r.FirstCol <= r.LastCol
}

// Single reports whether the region covers exactly one cell.
func (r Region) Single() bool { return r.FirstRow == r.LastRow && r.FirstCol == r.LastCol }

// Contains reports whether (row, col) is inside r.
func (r Region) Contains(row, col int) bool {
	return row >= r.FirstRow && row <= r.LastRow && col >= r.FirstCol && col <= r.LastCol
}

// Overlaps reports whether r and o share at least one cell.
func (r Region) Overlaps(o Region) bool {
	return r.FirstRow <= o.LastRow && o.FirstRow <= r.LastRow &&
		r.FirstCol <= o.LastCol && o.FirstCol <= r.LastCol
}

// Shift moves r by rows.
func (r Region) Shift(rows int) Region {
	r.FirstRow += rows
	r.LastRow += rows
	return r
}

func (r Region) String() string {
	return fmt.Sprintf("R%dC%d:R%dC%d", r.FirstRow, r.FirstCol, r.LastRow, r.LastCol)
}

// CheckRegions returns the first pair of overlapping or malformed regions.
func CheckRegions(regions []Region) error {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	SortRegions(sorted)
	for i, r := range sorted {
		if !r.Valid() {
			return fmt.Errorf("malformed merge region %s", r)
		}
		for _, o := range sorted[i+1:] {
			if o.FirstRow > r.LastRow {
				break
			}
			if r.Overlaps(o) {
				return fmt.Errorf("merge regions %s and %s overlap", r, o)
			}
		}
	}
	return nil
}

// SortRegions orders regions by first row, then first column.
func SortRegions(regions []Region) {
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].FirstRow != regions[j].FirstRow {
			return regions[i].FirstRow < regions[j].FirstRow
		}
		return regions[i].FirstCol < regions[j].FirstCol
	})
}
