// Package fill substitutes placeholders of a template document, expanding
// rows bound to collections and recomputing merge regions.
package fill

import (
	"context"
	"sort"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/placeholder"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// Options of one fill.
type Options struct {
	// Sheets selects sheets by name; empty fills every sheet.
	Sheets []string
}

// Result of a completed fill.
type Result struct {
	Warnings []sheeterr.Warning
}

// Engine fills templates. It keeps no state between fills.
type Engine struct {
	registry *convert.Registry
	chain    *handler.Chain
	logger   log.Logger
}

// New returns an engine. A nil chain or logger is replaced by an empty one.
func New(registry *convert.Registry, chain *handler.Chain, logger log.Logger) *Engine {
	if registry == nil {
		registry = convert.NewRegistry(convert.DefaultConfig())
	}
	if chain == nil {
		chain = handler.NewChain()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Engine{registry: registry, chain: chain, logger: logger}
}

// Fill substitutes data into every selected sheet of book. Unresolved and
// malformed placeholders become warnings; overlapping merges after row
// insertion abort the fill with a template error.
func (e *Engine) Fill(ctx context.Context, book backend.TemplateBook, data interface{}, opts Options) (res Result, err error) {
	logger := log.With(e.logger, "method", "Fill", "session", uuid.NewString())
	f := &filler{
		registry: e.registry.Snapshot(),
		chain:    e.chain,
		source:   placeholder.NewSource(data),
	}

	for _, info := range book.Sheets() {
		if len(opts.Sheets) > 0 && !contains(opts.Sheets, info.Name) {
			continue
		}
		if err = ctx.Err(); err != nil {
			return
		}
		var sheet backend.TemplateSheet
		if sheet, err = book.EditSheet(info.Name); err != nil {
			level.Error(logger).Log("msg", "edit sheet", "sheet", info.Name, "err", err)
			return
		}
		sctx := handler.NewSheetContext(info.Name, info.Index, e.chain)
		err = f.fillSheet(ctx, sctx, sheet)
		res.Warnings = append(res.Warnings, sctx.Warnings...)
		if err != nil {
			level.Error(logger).Log("msg", "fill sheet", "sheet", info.Name, "err", err)
			return
		}
		for _, w := range sctx.Warnings {
			level.Warn(logger).Log("msg", "placeholder", "warning", w.String())
		}
	}
	if err = e.chain.WorkbookDisposed(); err != nil {
		level.Error(logger).Log("msg", "workbook disposed", "err", err)
		return
	}
	level.Debug(logger).Log("msg", "filled", "warnings", len(res.Warnings))
	return
}

type filler struct {
	registry *convert.Registry
	chain    *handler.Chain
	source   placeholder.Source
}

// templateCell is a cell holding placeholders, parsed once.
type templateCell struct {
	col   int
	value cell.Value
	text  placeholder.Text
	runs  []placeholder.Text
	// malformed cells are left as written.
	malformed error
}

// scan indexes the cells of sheet that need rendering, by template row.
func (f *filler) scan(sheet backend.TemplateSheet) (map[int][]templateCell, []int, error) {
	rows, cols := sheet.Dimension()
	index := make(map[int][]templateCell)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v, err := sheet.Cell(r, c)
			if err != nil {
				return nil, nil, err
			}
			if v.Kind != cell.KindText && v.Kind != cell.KindRichText {
				continue
			}
			text, err := placeholder.Parse(v.PlainText())
			if err != nil {
				index[r] = append(index[r], templateCell{col: c, value: v, malformed: err})
				continue
			}
			if !text.HasTokens() && text.Unescaped() == text.Raw {
				continue
			}
			tc := templateCell{col: c, value: v, text: text}
			if v.Kind == cell.KindRichText {
				tc.runs = parseRuns(v.Runs, text)
			}
			index[r] = append(index[r], tc)
		}
	}
	order := make([]int, 0, len(index))
	for r := range index {
		order = append(order, r)
	}
	sort.Ints(order)
	return index, order, nil
}

// parseRuns parses each run on its own. It returns nil when a token spans
// runs, in which case the cell is rendered as one run.
func parseRuns(runs []cell.RichTextRun, whole placeholder.Text) []placeholder.Text {
	out := make([]placeholder.Text, len(runs))
	tokens := 0
	for i, r := range runs {
		t, err := placeholder.Parse(r.Text)
		if err != nil {
			return nil
		}
		tokens += len(t.Tokens())
		out[i] = t
	}
	if tokens != len(whole.Tokens()) {
		return nil
	}
	return out
}

func (f *filler) fillSheet(ctx context.Context, sctx *handler.SheetContext, sheet backend.TemplateSheet) (err error) {
	if err = f.chain.SheetCreated(sctx); err != nil {
		return
	}
	index, order, err := f.scan(sheet)
	if err != nil {
		return
	}
	merges, err := sheet.Merges()
	if err != nil {
		return
	}

	offset := 0
	for _, tr := range order {
		if err = ctx.Err(); err != nil {
			return
		}
		cur := tr + offset
		sctx.Row = cur
		cells := index[tr]
		collections := f.collections(cells)

		k := 1
		if len(collections) > 0 {
			k = 0
			for _, b := range collections {
				if n := len(b.Items); n > k {
					k = n
				}
			}
		}
		if k > 1 {
			if err = sheet.InsertRows(cur, k-1); err != nil {
				return
			}
			merges = expandMerges(merges, cur, k-1)
		}

		generated := k
		if generated == 0 {
			generated = 1
		}
		for i := 0; i < generated; i++ {
			element := i
			if k == 0 {
				element = -1
			}
			if err = f.renderRow(sctx, sheet, cur+i, i, cells, collections, element); err != nil {
				return
			}
		}
		if k > 1 {
			offset += k - 1
		}
	}

	merges = append(merges, sctx.Merges...)
	if cerr := cell.CheckRegions(merges); cerr != nil {
		return sheeterr.New(sheeterr.Template, cerr).At(sctx.Sheet, -1, -1)
	}
	if err = sheet.SetMerges(merges); err != nil {
		return
	}
	sctx.Merges = merges
	return f.chain.SheetDisposed(sctx)
}

// collections returns the collection bindings used by the row, keyed by collection path.
func (f *filler) collections(cells []templateCell) map[string]placeholder.Binding {
	bound := make(map[string]placeholder.Binding)
	for _, tc := range cells {
		if tc.malformed != nil {
			continue
		}
		for _, tok := range tc.text.Tokens() {
			if b, ok := f.source.Bind(tok.Path); ok {
				bound[b.Key()] = b
			}
		}
	}
	return bound
}

// expandMerges recomputes regions after n rows were inserted below anchor.
// Regions starting below the anchor move down, regions straddling it grow,
// regions confined to the anchor row are repeated on every new row.
func expandMerges(merges []cell.Region, anchor, n int) []cell.Region {
	out := make([]cell.Region, 0, len(merges))
	for _, m := range merges {
		switch {
		case m.FirstRow > anchor:
			out = append(out, m.Shift(n))
		case m.FirstRow == anchor && m.LastRow == anchor:
			for i := 0; i <= n; i++ {
				out = append(out, m.Shift(i))
			}
		case m.LastRow >= anchor:
			m.LastRow += n
			out = append(out, m)
		default:
			out = append(out, m)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
