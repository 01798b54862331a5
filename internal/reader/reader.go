// Package reader streams the rows of a document into records, one at a time
// and in document order.
package reader

import (
	"context"
	"errors"
	"strconv"

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

// Stop is returned by a consumer to end the read without error.
var Stop = errors.New("stop reading")

// Options of one read.
type Options struct {
	// HeadRows is the number of leading header rows of every sheet.
	HeadRows int
	// Sheets and SheetIndexes select sheets; both empty reads every sheet.
	Sheets       []string
	SheetIndexes []int
	// Shape declares the record fields. Fields without an explicit index are
	// bound to the column carrying their title in the last header row.
	Shape         *schema.Shape
	SchemaOptions schema.Options
	// Schema is used as is, skipping header validation. It wins over Shape.
	Schema *schema.Schema
	// SubstituteOnError stores Substitute in place of values failing conversion.
	SubstituteOnError bool
	Substitute        interface{}
	// KeepEmptyRows delivers rows without any cell.
	KeepEmptyRows bool
}

// Record is one assembled data row.
type Record struct {
	Sheet  string
	Row    int
	Values schema.Record
}

// Consumer receives records synchronously; returning Stop ends the read.
type Consumer func(ctx context.Context, rec Record) error

// Result of a completed read.
type Result struct {
	Records  int
	Warnings []sheeterr.Warning
}

type date1904 interface {
	Date1904() bool
}

// Pipeline reads documents. It keeps no state between reads.
type Pipeline struct {
	registry *convert.Registry
	chain    *handler.Chain
	logger   log.Logger
}

// New returns a pipeline. A nil registry, chain or logger gets a default.
func New(registry *convert.Registry, chain *handler.Chain, logger log.Logger) *Pipeline {
	if registry == nil {
		registry = convert.NewRegistry(convert.DefaultConfig())
	}
	if chain == nil {
		chain = handler.NewChain()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Pipeline{registry: registry, chain: chain, logger: logger}
}

// Read delivers the records of the selected sheets of src to consume and
// closes src on every exit path.
func (p *Pipeline) Read(ctx context.Context, src backend.Reader, opts Options, consume Consumer) (res Result, err error) {
	logger := log.With(p.logger, "method", "Read", "session", uuid.NewString())
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = backend.Structural(cerr)
		}
		if err != nil {
			level.Error(logger).Log("msg", "read", "err", err)
		}
	}()

	registry := p.registry.Snapshot()
	if d, ok := src.(date1904); ok && d.Date1904() {
		registry = p.registry.WithDate1904()
	}

	var resolved *schema.Schema
	if opts.Schema == nil && opts.Shape != nil {
		if resolved, err = schema.Resolve(*opts.Shape, opts.SchemaOptions); err != nil {
			return
		}
	}

	sheets, missing := selectSheets(src.Sheets(), opts)
	for _, m := range missing {
		w := sheeterr.Warning{Row: -1, Col: -1, Msg: "sheet " + m + " not found"}
		res.Warnings = append(res.Warnings, w)
		level.Warn(logger).Log("msg", "skip sheet", "warning", w.String())
	}

	r := &run{registry: registry, chain: p.chain, opts: opts, consume: consume}
	for _, info := range sheets {
		sctx := handler.NewSheetContext(info.Name, info.Index, p.chain)
		err = r.sheet(ctx, src, sctx, resolved)
		res.Warnings = append(res.Warnings, sctx.Warnings...)
		for _, w := range sctx.Warnings {
			level.Warn(logger).Log("msg", "read", "warning", w.String())
		}
		if errors.Is(err, Stop) {
			err = nil
			break
		}
		if err != nil {
			return
		}
	}
	res.Records = r.records
	if err = p.chain.WorkbookDisposed(); err != nil {
		return
	}
	level.Debug(logger).Log("msg", "read", "records", res.Records)
	return
}

// ReadAll collects every record of the selected sheets.
func ReadAll(ctx context.Context, p *Pipeline, src backend.Reader, opts Options) (records []Record, res Result, err error) {
	res, err = p.Read(ctx, src, opts, func(_ context.Context, rec Record) error {
		records = append(records, rec)
		return nil
	})
	return
}

type run struct {
	registry *convert.Registry
	chain    *handler.Chain
	opts     Options
	consume  Consumer
	records  int
}

func (r *run) sheet(ctx context.Context, src backend.Reader, sctx *handler.SheetContext, resolved *schema.Schema) (err error) {
	if err = r.chain.SheetCreated(sctx); err != nil {
		return
	}
	st := newSheetState(sctx, r.opts, resolved)
	err = src.Visit(ctx, sctx.Sheet, func(row cell.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sctx.Row = row.Index
		data, err := st.next(row)
		if err != nil || !data {
			return err
		}
		if row.Empty() && !r.opts.KeepEmptyRows {
			return nil
		}
		values, err := r.assemble(sctx, st.schemaFor(row), row)
		if err != nil {
			return err
		}
		if err = r.chain.RecordAssembled(sctx, row.Index, values); err != nil {
			return err
		}
		r.records++
		return r.consume(ctx, Record{Sheet: sctx.Sheet, Row: row.Index, Values: values})
	})
	if err != nil {
		return
	}
	if err = st.finish(); err != nil {
		return
	}
	return r.chain.SheetDisposed(sctx)
}

// assemble decodes the cells of row into a record keyed by field name.
func (r *run) assemble(sctx *handler.SheetContext, s *schema.Schema, row cell.Row) (schema.Record, error) {
	rec := make(schema.Record, len(s.Columns))
	for _, c := range s.Columns {
		v, _ := row.Get(c.Col)
		decoded, err := r.registry.Decode(v, c.Spec())
		if err != nil {
			located := sheeterr.Locate(err, sheeterr.Conversion, sctx.Sheet, row.Index, c.Col, c.Name)
			if !r.opts.SubstituteOnError {
				return nil, located
			}
			sctx.Warn(row.Index, c.Col, "%s: substituted", located.Err)
			decoded = r.opts.Substitute
		}
		rec[c.Name] = decoded
	}
	return rec, nil
}

// selectSheets returns the selected sheets in document order and the
// requested names and indexes the document lacks.
func selectSheets(all []backend.SheetInfo, opts Options) (selected []backend.SheetInfo, missing []string) {
	if len(opts.Sheets) == 0 && len(opts.SheetIndexes) == 0 {
		return all, nil
	}
	names := make(map[string]bool, len(opts.Sheets))
	for _, n := range opts.Sheets {
		names[n] = false
	}
	indexes := make(map[int]bool, len(opts.SheetIndexes))
	for _, i := range opts.SheetIndexes {
		indexes[i] = false
	}
	for _, info := range all {
		_, byName := names[info.Name]
		_, byIndex := indexes[info.Index]
		if byName || byIndex {
			selected = append(selected, info)
			names[info.Name] = true
			indexes[info.Index] = true
		}
	}
	for _, n := range opts.Sheets {
		if !names[n] {
			missing = append(missing, n)
		}
	}
	for _, i := range opts.SheetIndexes {
		if !indexes[i] {
			missing = append(missing, "#"+strconv.Itoa(i))
		}
	}
	return
}
