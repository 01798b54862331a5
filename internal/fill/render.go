package fill

import (
	"fmt"

	"github.com/geoirb/sheetbind/internal/backend"
	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/placeholder"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

// noElement renders collection tokens of a row bound to an empty collection.
const noElement = -1

// renderRow renders the template cells of one generated row. element is the
// collection element index for the row, or noElement.
func (f *filler) renderRow(sctx *handler.SheetContext, sheet backend.TemplateSheet, row, relative int, cells []templateCell, collections map[string]placeholder.Binding, element int) (err error) {
	template := cell.NewRow(row)
	for _, tc := range cells {
		template.Set(tc.col, tc.value)
	}
	ev := &handler.RowEvent{Cells: &template, Relative: relative, Record: recordOf(collections, element)}
	if err = f.chain.BeforeRow(sctx, ev); err != nil {
		return
	}

	for _, tc := range cells {
		if tc.malformed != nil {
			if relative == 0 {
				sctx.Warn(row, tc.col, "%s", tc.malformed)
			}
			continue
		}
		var (
			value   cell.Value
			changed bool
		)
		if value, changed, err = f.render(sctx, row, tc, element); err != nil {
			return
		}
		if !changed {
			continue
		}
		cev := &handler.CellEvent{Row: row, Col: tc.col, Field: fieldOf(tc.text), Value: &value}
		if err = f.chain.BeforeCell(sctx, cev); err != nil {
			return
		}
		if err = sheet.SetCell(row, tc.col, value); err != nil {
			return
		}
		if err = f.chain.AfterCell(sctx, cev); err != nil {
			return
		}
	}
	return
}

// render returns the rendered value of tc and whether it differs from the template.
func (f *filler) render(sctx *handler.SheetContext, row int, tc templateCell, element int) (value cell.Value, changed bool, err error) {
	if tok, ok := tc.text.Single(); ok && tc.value.Kind == cell.KindText {
		v, resolved := f.resolve(tok, element)
		if !resolved {
			sctx.Warn(row, tc.col, "unresolved placeholder %s", tok.Raw)
			return
		}
		if value, err = f.encode(v, tok.Marker); err != nil {
			err = sheeterr.Locate(fmt.Errorf("placeholder %s: %w", tok.Raw, err), sheeterr.Conversion, sctx.Sheet, row, tc.col, tok.Key())
			return
		}
		return value, true, nil
	}

	var failed error
	substitute := func(tok placeholder.Token) (string, bool) {
		v, resolved := f.resolve(tok, element)
		if !resolved {
			sctx.Warn(row, tc.col, "unresolved placeholder %s", tok.Raw)
			return "", false
		}
		if tok.Marker != placeholder.MarkerNone {
			sctx.Warn(row, tc.col, "marker %s ignored inside text", tok.Marker)
		}
		s, ferr := f.registry.Format(v, convert.Spec{})
		if ferr != nil && failed == nil {
			failed = sheeterr.Locate(fmt.Errorf("placeholder %s: %w", tok.Raw, ferr), sheeterr.Conversion, sctx.Sheet, row, tc.col, tok.Key())
		}
		return s, true
	}

	switch {
	case tc.value.Kind != cell.KindRichText:
		value = cell.Text(tc.text.Render(substitute))
	case tc.runs != nil:
		runs := make([]cell.RichTextRun, len(tc.value.Runs))
		for i, r := range tc.value.Runs {
			runs[i] = cell.RichTextRun{Text: tc.runs[i].Render(substitute), Font: r.Font}
		}
		value = cell.Rich(runs...)
	default:
		// a token spans runs: collapse into the first run's font
		var font *cell.Font
		if len(tc.value.Runs) > 0 {
			font = tc.value.Runs[0].Font
		}
		value = cell.Rich(cell.RichTextRun{Text: tc.text.Render(substitute), Font: font})
	}
	if failed != nil {
		return cell.Value{}, false, failed
	}
	return value, value.PlainText() != tc.value.PlainText() || value.Kind != tc.value.Kind, nil
}

// resolve looks up tok for the given collection element. Collection tokens
// of a missing element resolve to nil.
func (f *filler) resolve(tok placeholder.Token, element int) (interface{}, bool) {
	b, bound := f.source.Bind(tok.Path)
	if !bound {
		return f.source.Resolve(tok)
	}
	if element == noElement || element >= len(b.Items) {
		return nil, true
	}
	return placeholder.Lookup(b.Items[element], b.Rest)
}

func (f *filler) encode(v interface{}, marker placeholder.Marker) (cell.Value, error) {
	switch marker {
	case placeholder.MarkerImage:
		return f.registry.Encode(v, convert.Spec{Type: convert.TypeImage})
	case placeholder.MarkerQRCode:
		return f.registry.Encode(v, convert.Spec{Converter: "qrcode"})
	}
	return f.registry.EncodeAuto(v)
}

// recordOf exposes the element of the row's only collection to row handlers.
func recordOf(collections map[string]placeholder.Binding, element int) schema.Record {
	if len(collections) != 1 || element == noElement {
		return nil
	}
	for _, b := range collections {
		if element >= len(b.Items) {
			return nil
		}
		if m, ok := b.Items[element].(map[string]interface{}); ok {
			return schema.Record(m)
		}
	}
	return nil
}

func fieldOf(t placeholder.Text) string {
	if tok, ok := t.Single(); ok {
		return tok.Key()
	}
	return ""
}
