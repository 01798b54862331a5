package handler

import (
	"fmt"

	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// SheetContext is the per sheet state of one read, write or fill session.
type SheetContext struct {
	Sheet string
	Index int
	// Row is the cursor: the next row to be written, or the row being read.
	Row int
	// Merges are regions requested for the sheet, applied when it is disposed.
	Merges   []cell.Region
	Warnings []sheeterr.Warning
	Chain    *Chain
}

// NewSheetContext binds chain to sheet.
func NewSheetContext(sheet string, index int, chain *Chain) *SheetContext {
	if chain == nil {
		chain = NewChain()
	}
	return &SheetContext{Sheet: sheet, Index: index, Chain: chain}
}

// Merge requests region to be merged.
func (c *SheetContext) Merge(r cell.Region) { c.Merges = append(c.Merges, r) }

// Warn records a non-fatal event at row/col (-1 when not cell bound).
func (c *SheetContext) Warn(row, col int, format string, args ...interface{}) sheeterr.Warning {
	w := sheeterr.Warning{Sheet: c.Sheet, Row: row, Col: col, Msg: fmt.Sprintf(format, args...)}
	c.Warnings = append(c.Warnings, w)
	return w
}

// RowEvent is a row about to be rendered.
type RowEvent struct {
	Cells *cell.Row
	// Head marks header rows.
	Head bool
	// Relative is the zero-based index among data rows, or among head rows when Head is set.
	Relative int
	Record   schema.Record
}

// CellEvent is a cell about to be, or just, rendered. Value stays mutable until
// the row is flushed.
type CellEvent struct {
	Row   int
	Col   int
	Head  bool
	Field string
	Value *cell.Value
}

// SheetHandler observes the sheet lifecycle.
type SheetHandler interface {
	SheetCreated(ctx *SheetContext) error
	SheetDisposed(ctx *SheetContext) error
}

// RowHandler observes rows before their cells are rendered.
type RowHandler interface {
	BeforeRow(ctx *SheetContext, ev *RowEvent) error
}

// CellHandler observes each rendered cell.
type CellHandler interface {
	BeforeCell(ctx *SheetContext, ev *CellEvent) error
	AfterCell(ctx *SheetContext, ev *CellEvent) error
}

// RecordHandler observes records assembled by a read before the consumer gets them.
type RecordHandler interface {
	RecordAssembled(ctx *SheetContext, row int, rec schema.Record) error
}

// WorkbookHandler observes the end of a document session.
type WorkbookHandler interface {
	WorkbookDisposed() error
}

// Chain invokes handlers in registration order. Each event reaches only the
// handlers implementing its capability; later handlers see earlier mutations.
type Chain struct {
	sheet    []SheetHandler
	row      []RowHandler
	cell     []CellHandler
	record   []RecordHandler
	workbook []WorkbookHandler
}

// NewChain returns a chain of handlers, see Add.
func NewChain(handlers ...interface{}) *Chain {
	c := &Chain{}
	for _, h := range handlers {
		if err := c.Add(h); err != nil {
			panic(err)
		}
	}
	return c
}

// Add registers h under every capability it implements.
func (c *Chain) Add(h interface{}) error {
	added := false
	if x, ok := h.(SheetHandler); ok {
		c.sheet = append(c.sheet, x)
		added = true
	}
	if x, ok := h.(RowHandler); ok {
		c.row = append(c.row, x)
		added = true
	}
	if x, ok := h.(CellHandler); ok {
		c.cell = append(c.cell, x)
		added = true
	}
	if x, ok := h.(RecordHandler); ok {
		c.record = append(c.record, x)
		added = true
	}
	if x, ok := h.(WorkbookHandler); ok {
		c.workbook = append(c.workbook, x)
		added = true
	}
	if !added {
		return fmt.Errorf("add handler: %T implements no handler capability", h)
	}
	return nil
}

// Empty reports whether no handler is registered.
func (c *Chain) Empty() bool {
	return len(c.sheet)+len(c.row)+len(c.cell)+len(c.record)+len(c.workbook) == 0
}

func (c *Chain) SheetCreated(ctx *SheetContext) error {
	for _, h := range c.sheet {
		if err := h.SheetCreated(ctx); err != nil {
			return fmt.Errorf("sheet created handler %T: %w", h, err)
		}
	}
	return nil
}

func (c *Chain) SheetDisposed(ctx *SheetContext) error {
	for _, h := range c.sheet {
		if err := h.SheetDisposed(ctx); err != nil {
			return fmt.Errorf("sheet disposed handler %T: %w", h, err)
		}
	}
	return nil
}

func (c *Chain) BeforeRow(ctx *SheetContext, ev *RowEvent) error {
	for _, h := range c.row {
		if err := h.BeforeRow(ctx, ev); err != nil {
			return fmt.Errorf("row handler %T: %w", h, err)
		}
	}
	return nil
}

func (c *Chain) BeforeCell(ctx *SheetContext, ev *CellEvent) error {
	for _, h := range c.cell {
		if err := h.BeforeCell(ctx, ev); err != nil {
			return fmt.Errorf("cell handler %T: %w", h, err)
		}
	}
	return nil
}

func (c *Chain) AfterCell(ctx *SheetContext, ev *CellEvent) error {
	for _, h := range c.cell {
		if err := h.AfterCell(ctx, ev); err != nil {
			return fmt.Errorf("cell handler %T: %w", h, err)
		}
	}
	return nil
}

func (c *Chain) RecordAssembled(ctx *SheetContext, row int, rec schema.Record) error {
	for _, h := range c.record {
		if err := h.RecordAssembled(ctx, row, rec); err != nil {
			return fmt.Errorf("record handler %T: %w", h, err)
		}
	}
	return nil
}

// WorkbookDisposed runs every handler and returns the first error.
func (c *Chain) WorkbookDisposed() (err error) {
	for _, h := range c.workbook {
		if herr := h.WorkbookDisposed(); herr != nil && err == nil {
			err = fmt.Errorf("workbook handler %T: %w", h, herr)
		}
	}
	return
}
