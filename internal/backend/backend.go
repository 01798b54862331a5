// Package backend declares the document contracts the pipelines drive.
// Rows and columns are zero-based everywhere.
package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// SheetInfo names a sheet and its position in the document.
type SheetInfo struct {
	Name  string
	Index int
}

// Reader streams the rows of an opened document.
type Reader interface {
	Sheets() []SheetInfo
	// Visit pushes the rows of sheet in document order. Rows of other sheets
	// are never decoded. An error from visit stops the walk and is returned as is.
	Visit(ctx context.Context, sheet string, visit func(row cell.Row) error) error
	Close() error
}

// Workbook is a document being written.
type Workbook interface {
	NewSheet(name string) (SheetSink, error)
	Save(w io.Writer) error
	Close() error
}

// SheetSink accepts rows in ascending order.
type SheetSink interface {
	// SetColumnWidth must be called before the first WriteRows.
	SetColumnWidth(col int, width float64) error
	WriteRows(rows []cell.Row) error
	Merge(r cell.Region) error
	// SetDimension declares the used range of the sheet.
	SetDimension(r cell.Region) error
	Close() error
}

// TemplateBook is a document opened for in place editing.
type TemplateBook interface {
	Sheets() []SheetInfo
	EditSheet(name string) (TemplateSheet, error)
	Save(w io.Writer) error
	Close() error
}

// TemplateSheet is the mutable cell and merge graph of one sheet.
type TemplateSheet interface {
	Name() string
	// Dimension returns the number of used rows and columns.
	Dimension() (rows, cols int)
	Cell(row, col int) (cell.Value, error)
	// SetCell replaces the content of a cell. A zero Style keeps the cell's style.
	SetCell(row, col int, v cell.Value) error
	// InsertRows inserts n copies of row after it, shifting the following rows
	// down. Merge regions are left to SetMerges.
	InsertRows(row, n int) error
	Merges() ([]cell.Region, error)
	// SetMerges replaces every merge region of the sheet.
	SetMerges(regions []cell.Region) error
}

// Structural wraps a corrupt container failure.
func Structural(err error) *sheeterr.Error {
	e := sheeterr.New(sheeterr.Backend, err)
	e.Structural = true
	return e
}

// Contentf is a backend failure caused by the content written or read.
func Contentf(format string, args ...interface{}) *sheeterr.Error {
	return sheeterr.New(sheeterr.Backend, fmt.Errorf(format, args...))
}
