// Package writer renders records into rows and pushes them to a document in
// bounded batches.
package writer

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 100

// Options of a write session.
type Options struct {
	// BatchSize is the number of rows buffered before they are pushed to the document.
	BatchSize int
	// SkipHead suppresses header rows.
	SkipHead      bool
	SchemaOptions schema.Options
}

// Target names a sheet and the shape of its records. With neither Shape nor
// Schema the columns are the keys of the first record, sorted.
type Target struct {
	Sheet  string
	Shape  *schema.Shape
	Schema *schema.Schema
}

// Session writes records to the sheets of one document. A session is not
// safe for concurrent use.
type Session struct {
	workbook backend.Workbook
	registry *convert.Registry
	chain    *handler.Chain
	logger   log.Logger
	opts     Options

	sheets map[string]*sheetWriter
	order  []*sheetWriter
	closed bool
}

// New opens a session on workbook. A nil registry, chain or logger gets a default.
func New(workbook backend.Workbook, registry *convert.Registry, chain *handler.Chain, logger log.Logger, opts Options) *Session {
	if registry == nil {
		registry = convert.NewRegistry(convert.DefaultConfig())
	}
	if chain == nil {
		chain = handler.NewChain()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Session{
		workbook: workbook,
		registry: registry.Snapshot(),
		chain:    chain,
		logger:   log.With(logger, "session", uuid.NewString()),
		opts:     opts,
		sheets:   make(map[string]*sheetWriter),
	}
}

// Write appends the records of src to target after the rows of previous
// calls and returns the number of data rows written.
func (s *Session) Write(ctx context.Context, target Target, src Source) (n int, err error) {
	logger := log.With(s.logger, "method", "Write", "sheet", target.Sheet)
	defer func() {
		if err != nil {
			level.Error(logger).Log("msg", "write", "err", err)
		}
	}()
	if s.closed {
		return 0, backend.Contentf("write %s: session is closed", target.Sheet)
	}

	// the target is resolved once, against the first record
	var w *sheetWriter
	for {
		if err = ctx.Err(); err != nil {
			return
		}
		var (
			rec schema.Record
			ok  bool
		)
		if rec, ok, err = src.Next(ctx); err != nil || !ok {
			break
		}
		if w == nil {
			if w, err = s.sheet(target, rec); err != nil {
				return
			}
		}
		if err = w.write(rec); err != nil {
			return
		}
		n++
	}
	if err != nil {
		return
	}
	if n == 0 {
		// an empty write still creates the sheet and its head
		if w, err = s.sheet(target, nil); err != nil {
			return
		}
		err = w.head()
	}
	level.Debug(logger).Log("msg", "written", "rows", n)
	return
}

// Flush pushes the buffered rows of every sheet to the document.
func (s *Session) Flush() error {
	for _, w := range s.order {
		if err := w.flush(); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes every sheet. The session cannot be written after.
func (s *Session) Close() (err error) {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, w := range s.order {
		if err = w.close(); err != nil {
			level.Error(s.logger).Log("msg", "close sheet", "sheet", w.sctx.Sheet, "err", err)
			return
		}
	}
	return s.chain.WorkbookDisposed()
}

// Save closes the session and writes the document to out.
func (s *Session) Save(out io.Writer) error {
	if err := s.Close(); err != nil {
		return err
	}
	return s.workbook.Save(out)
}

// sheet returns the writer of target, creating the sheet on first use.
func (s *Session) sheet(target Target, first schema.Record) (*sheetWriter, error) {
	w, exists := s.sheets[target.Sheet]
	if exists && target.Shape == nil && target.Schema == nil {
		return w, nil
	}
	sch, err := s.schemaOf(target, first)
	if err != nil {
		return nil, sheeterr.Locate(err, sheeterr.Schema, target.Sheet, -1, -1, "")
	}
	if exists {
		if !w.schema.Equal(sch) {
			return nil, sheeterr.Newf(sheeterr.SchemaMismatch, "schema of sheet %s changed between writes", target.Sheet).At(target.Sheet, w.cursor, -1)
		}
		return w, nil
	}

	sink, err := s.workbook.NewSheet(target.Sheet)
	if err != nil {
		return nil, err
	}
	w = &sheetWriter{
		sink:     sink,
		registry: s.registry,
		chain:    s.chain,
		sctx:     handler.NewSheetContext(target.Sheet, len(s.order), s.chain),
		schema:   sch,
		batch:    s.opts.BatchSize,
		skipHead: s.opts.SkipHead,
		lastCol:  sch.LastCol(),
	}
	if err = w.open(); err != nil {
		return nil, err
	}
	s.sheets[target.Sheet] = w
	s.order = append(s.order, w)
	level.Debug(s.logger).Log("msg", "sheet created", "sheet", target.Sheet, "columns", len(sch.Columns))
	return w, nil
}

func (s *Session) schemaOf(target Target, first schema.Record) (*schema.Schema, error) {
	switch {
	case target.Schema != nil:
		return target.Schema, nil
	case target.Shape != nil:
		return schema.Resolve(*target.Shape, s.opts.SchemaOptions)
	}
	return schema.Resolve(shapeOf(target.Sheet, first), s.opts.SchemaOptions)
}

// shapeOf declares one untyped field per key of rec.
func shapeOf(name string, rec schema.Record) schema.Shape {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	shape := schema.Shape{Name: name, Fields: make([]schema.Field, len(keys))}
	for i, k := range keys {
		shape.Fields[i] = schema.Field{Name: k}
	}
	return shape
}

type sheetWriter struct {
	sink     backend.SheetSink
	registry *convert.Registry
	chain    *handler.Chain
	sctx     *handler.SheetContext
	schema   *schema.Schema

	batch    int
	buffer   []cell.Row
	skipHead bool
	headDone bool
	// cursor is the next row to write, data counts written data rows.
	cursor  int
	data    int
	lastCol int
}

func (w *sheetWriter) open() error {
	for _, c := range w.schema.Columns {
		if c.Width > 0 {
			if err := w.sink.SetColumnWidth(c.Col, c.Width); err != nil {
				return err
			}
		}
	}
	return w.chain.SheetCreated(w.sctx)
}

// head renders the header rows once.
func (w *sheetWriter) head() error {
	if w.headDone {
		return nil
	}
	w.headDone = true
	if w.skipHead || w.schema.HeadDepth == 0 {
		return nil
	}
	first := w.cursor
	for level, row := range w.schema.HeadRows(first) {
		row := row
		if err := w.chain.BeforeRow(w.sctx, &handler.RowEvent{Cells: &row, Head: true, Relative: level}); err != nil {
			return err
		}
		for i := range row.Cells {
			e := &row.Cells[i]
			ev := &handler.CellEvent{Row: row.Index, Col: e.Col, Head: true, Value: &e.Value}
			if c, ok := w.schema.ByIndex(e.Col); ok {
				ev.Field = c.Name
			}
			if err := w.chain.BeforeCell(w.sctx, ev); err != nil {
				return err
			}
			if err := w.chain.AfterCell(w.sctx, ev); err != nil {
				return err
			}
		}
		if err := w.push(row); err != nil {
			return err
		}
	}
	for _, m := range w.schema.HeadMerges {
		w.sctx.Merge(m.Shift(first))
	}
	return nil
}

func (w *sheetWriter) write(rec schema.Record) (err error) {
	if err = w.head(); err != nil {
		return
	}
	row := cell.NewRow(w.cursor)
	if err = w.chain.BeforeRow(w.sctx, &handler.RowEvent{Cells: &row, Relative: w.data, Record: rec}); err != nil {
		return
	}
	for _, c := range w.schema.Columns {
		var v cell.Value
		if v, err = w.registry.Encode(rec[c.Name], c.Spec()); err != nil {
			return sheeterr.Locate(err, sheeterr.Conversion, w.sctx.Sheet, row.Index, c.Col, c.Name)
		}
		ev := &handler.CellEvent{Row: row.Index, Col: c.Col, Field: c.Name, Value: &v}
		if err = w.chain.BeforeCell(w.sctx, ev); err != nil {
			return
		}
		row.Set(c.Col, v)
		ev.Value = row.Ptr(c.Col)
		if err = w.chain.AfterCell(w.sctx, ev); err != nil {
			return
		}
	}
	w.data++
	return w.push(row)
}

// push buffers row and flushes a full batch.
func (w *sheetWriter) push(row cell.Row) error {
	if last := row.LastCol(); last > w.lastCol {
		w.lastCol = last
	}
	w.buffer = append(w.buffer, row)
	w.cursor = row.Index + 1
	w.sctx.Row = w.cursor
	if len(w.buffer) >= w.batch {
		return w.flush()
	}
	return nil
}

// flush hands the buffered rows over to the sink.
func (w *sheetWriter) flush() error {
	if len(w.buffer) == 0 {
		return nil
	}
	if err := w.sink.WriteRows(w.buffer); err != nil {
		return sheeterr.Locate(err, sheeterr.Backend, w.sctx.Sheet, w.buffer[0].Index, -1, "")
	}
	w.buffer = nil
	return nil
}

func (w *sheetWriter) close() (err error) {
	if err = w.head(); err != nil {
		return
	}
	if err = w.flush(); err != nil {
		return
	}
	if err = w.chain.SheetDisposed(w.sctx); err != nil {
		return
	}
	if err = cell.CheckRegions(w.sctx.Merges); err != nil {
		return sheeterr.New(sheeterr.Template, fmt.Errorf("sheet %s: %w", w.sctx.Sheet, err)).At(w.sctx.Sheet, -1, -1)
	}
	for _, m := range w.sctx.Merges {
		if err = w.sink.Merge(m); err != nil {
			return
		}
	}
	if w.cursor > 0 && w.lastCol >= 0 {
		if err = w.sink.SetDimension(cell.Region{LastRow: w.cursor - 1, LastCol: w.lastCol}); err != nil {
			return
		}
	}
	return w.sink.Close()
}
