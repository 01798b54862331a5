package handler

import (
	"github.com/geoirb/sheetbind/internal/cell"
)

// LoopMerge merges every EachRow data rows of column Col, ColSpan columns wide.
type LoopMerge struct {
	EachRow int
	Col     int
	ColSpan int
}

func (m LoopMerge) BeforeRow(ctx *SheetContext, ev *RowEvent) error {
	if ev.Head || m.EachRow <= 0 || ev.Relative%m.EachRow != 0 {
		return nil
	}
	span := m.ColSpan
	if span <= 0 {
		span = 1
	}
	if m.EachRow == 1 && span == 1 {
		return nil
	}
	ctx.Merge(cell.Region{
		FirstRow: ev.Cells.Index,
		LastRow:  ev.Cells.Index + m.EachRow - 1,
		FirstCol: m.Col,
		LastCol:  m.Col + span - 1,
	})
	return nil
}

// AbsoluteMerge merges one fixed region on every sheet.
type AbsoluteMerge struct {
	Region cell.Region
}

func (m AbsoluteMerge) SheetCreated(ctx *SheetContext) error {
	ctx.Merge(m.Region)
	return nil
}

func (AbsoluteMerge) SheetDisposed(*SheetContext) error { return nil }

// ColumnStyle applies format hints and style ids by column to data cells
// that carry none.
type ColumnStyle struct {
	Formats map[int]string
	Styles  map[int]int
}

func (s ColumnStyle) BeforeCell(_ *SheetContext, ev *CellEvent) error {
	if ev.Head || ev.Value == nil {
		return nil
	}
	if f, ok := s.Formats[ev.Col]; ok && ev.Value.Format == "" {
		ev.Value.Format = f
	}
	if st, ok := s.Styles[ev.Col]; ok && ev.Value.Style == 0 {
		ev.Value.Style = st
	}
	return nil
}

func (ColumnStyle) AfterCell(*SheetContext, *CellEvent) error { return nil }
