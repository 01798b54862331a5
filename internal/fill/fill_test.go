package fill

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoirb/sheetbind/internal/backend/memory"
	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

const onePixel = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABAQMAAAAl21bKAAAAA1BMVEUAAACnej3aAAAAAXRSTlMAQObYZgAAAApJREFUCNdjYAAAAAIAAeIhvDMAAAAASUVORK5CYII="

func newEngine(handlers ...interface{}) *Engine {
	return New(convert.NewRegistry(convert.DefaultConfig()), handler.NewChain(handlers...), log.NewNopLogger())
}

func invoice() map[string]interface{} {
	return map[string]interface{}{
		"title": "Invoice",
		"items": []interface{}{
			map[string]interface{}{"name": "A", "qty": 1},
			map[string]interface{}{"name": "B", "qty": 2},
			map[string]interface{}{"name": "C", "qty": 3},
		},
		"total": 6,
	}
}

func invoiceTemplate() *memory.Book {
	b := memory.New()
	s := b.Add("Sheet1",
		cell.RowOf(0, cell.Text("{title}")),
		cell.RowOf(1, cell.Text("{items.name}"), cell.Text("{items.qty}")),
		cell.RowOf(5, cell.Text("Total: {total}")),
	)
	_ = s.Merge(cell.Region{FirstRow: 5, LastRow: 5, FirstCol: 0, LastCol: 1})
	_ = s.Merge(cell.Region{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 2})
	return b
}

func TestFillCollection(t *testing.T) {
	book := invoiceTemplate()

	res, err := newEngine().Fill(context.Background(), book, invoice(), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	s := book.Get("Sheet1")
	assert.Equal(t, cell.Text("Invoice"), s.Value(0, 0))
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, name, s.Value(1+i, 0).Text)
		assert.Equal(t, cell.KindNumber, s.Value(1+i, 1).Kind)
		assert.Equal(t, float64(i+1), s.Value(1+i, 1).Number)
	}
	assert.Equal(t, "Total: 6", s.Value(7, 0).Text)
	assert.Equal(t, cell.KindNone, s.Value(5, 0).Kind)

	merges, err := s.Merges()
	require.NoError(t, err)
	assert.ElementsMatch(t, []cell.Region{
		{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 2},
		{FirstRow: 7, LastRow: 7, FirstCol: 0, LastCol: 1},
	}, merges)
}

func TestFillEmptyCollection(t *testing.T) {
	book := invoiceTemplate()
	data := invoice()
	data["items"] = []interface{}{}

	_, err := newEngine().Fill(context.Background(), book, data, Options{})
	require.NoError(t, err)

	s := book.Get("Sheet1")
	assert.True(t, s.Value(1, 0).IsEmpty())
	assert.True(t, s.Value(1, 1).IsEmpty())
	assert.Equal(t, "Total: 6", s.Value(5, 0).Text)

	merges, _ := s.Merges()
	assert.Contains(t, merges, cell.Region{FirstRow: 5, LastRow: 5, FirstCol: 0, LastCol: 1})
}

func TestFillRootSequence(t *testing.T) {
	book := memory.New()
	book.Add("Sheet1", cell.RowOf(0, cell.Text("{name}"), cell.Text("#{id}")))
	data := []map[string]interface{}{{"name": "x", "id": 1}, {"name": "y", "id": 2}}

	_, err := newEngine().Fill(context.Background(), book, data, Options{})
	require.NoError(t, err)

	s := book.Get("Sheet1")
	assert.Equal(t, "x", s.Value(0, 0).Text)
	assert.Equal(t, "#1", s.Value(0, 1).Text)
	assert.Equal(t, "y", s.Value(1, 0).Text)
	assert.Equal(t, "#2", s.Value(1, 1).Text)
}

func TestExpandMerges(t *testing.T) {
	merges := []cell.Region{
		{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 3},
		{FirstRow: 2, LastRow: 2, FirstCol: 0, LastCol: 1},
		{FirstRow: 1, LastRow: 3, FirstCol: 4, LastCol: 4},
		{FirstRow: 6, LastRow: 7, FirstCol: 0, LastCol: 0},
	}
	got := expandMerges(merges, 2, 2)
	assert.Equal(t, []cell.Region{
		{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 3},
		{FirstRow: 2, LastRow: 2, FirstCol: 0, LastCol: 1},
		{FirstRow: 3, LastRow: 3, FirstCol: 0, LastCol: 1},
		{FirstRow: 4, LastRow: 4, FirstCol: 0, LastCol: 1},
		{FirstRow: 1, LastRow: 5, FirstCol: 4, LastCol: 4},
		{FirstRow: 8, LastRow: 9, FirstCol: 0, LastCol: 0},
	}, got)
	assert.NoError(t, cell.CheckRegions(got))
}

func TestFillOverlappingMerge(t *testing.T) {
	book := invoiceTemplate()
	e := newEngine(handler.AbsoluteMerge{Region: cell.Region{FirstRow: 7, LastRow: 8, FirstCol: 1, LastCol: 2}})

	_, err := e.Fill(context.Background(), book, invoice(), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sheeterr.ErrTemplate))
}

func TestFillWarnings(t *testing.T) {
	book := memory.New()
	book.Add("Sheet1",
		cell.RowOf(0, cell.Text("{missing}"), cell.Text("{broken"), cell.Text(`\{kept\}`), cell.Text("a {missing} b")),
	)

	res, err := newEngine().Fill(context.Background(), book, map[string]interface{}{}, Options{})
	require.NoError(t, err)

	s := book.Get("Sheet1")
	assert.Equal(t, "{missing}", s.Value(0, 0).Text)
	assert.Equal(t, "{broken", s.Value(0, 1).Text)
	assert.Equal(t, "{kept}", s.Value(0, 2).Text)
	assert.Equal(t, "a {missing} b", s.Value(0, 3).Text)

	require.Len(t, res.Warnings, 3)
	cols := make([]int, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		assert.Equal(t, "Sheet1", w.Sheet)
		assert.Equal(t, 0, w.Row)
		cols = append(cols, w.Col)
	}
	assert.ElementsMatch(t, []int{0, 1, 3}, cols)
}

func TestFillKeepsStyle(t *testing.T) {
	book := memory.New()
	book.Add("Sheet1", cell.RowOf(0, cell.Text("{title}").WithStyle(7)))

	_, err := newEngine().Fill(context.Background(), book, invoice(), Options{})
	require.NoError(t, err)

	v := book.Get("Sheet1").Value(0, 0)
	assert.Equal(t, "Invoice", v.Text)
	assert.Equal(t, 7, v.Style)
}

func TestFillRichText(t *testing.T) {
	bold := &cell.Font{Bold: true}
	italic := &cell.Font{Italic: true}
	book := memory.New()
	book.Add("Sheet1", cell.RowOf(0,
		cell.Rich(cell.RichTextRun{Text: "Dear ", Font: bold}, cell.RichTextRun{Text: "{title}", Font: italic}),
		cell.Rich(cell.RichTextRun{Text: "{ti", Font: bold}, cell.RichTextRun{Text: "tle}!", Font: italic}),
	))

	_, err := newEngine().Fill(context.Background(), book, invoice(), Options{})
	require.NoError(t, err)

	s := book.Get("Sheet1")
	assert.Equal(t, []cell.RichTextRun{{Text: "Dear ", Font: bold}, {Text: "Invoice", Font: italic}}, s.Value(0, 0).Runs)
	assert.Equal(t, []cell.RichTextRun{{Text: "Invoice!", Font: bold}}, s.Value(0, 1).Runs)
}

func TestFillMarkers(t *testing.T) {
	png, err := base64.StdEncoding.DecodeString(onePixel)
	require.NoError(t, err)
	book := memory.New()
	book.Add("Sheet1", cell.RowOf(0, cell.Text("{logo:image}"), cell.Text("{link:qr_code}")))
	data := map[string]interface{}{"logo": png, "link": "https://example.com"}

	_, err = newEngine().Fill(context.Background(), book, data, Options{})
	require.NoError(t, err)

	s := book.Get("Sheet1")
	logo := s.Value(0, 0)
	require.Equal(t, cell.KindImage, logo.Kind)
	assert.Equal(t, png, logo.Image.Data)
	assert.Equal(t, ".png", logo.Image.Extension)

	qr := s.Value(0, 1)
	require.Equal(t, cell.KindImage, qr.Kind)
	assert.True(t, bytes.HasPrefix(qr.Image.Data, []byte("\x89PNG")))
}

type rowRecorder struct {
	relative []int
	names    []interface{}
	disposed bool
}

func (r *rowRecorder) BeforeRow(_ *handler.SheetContext, ev *handler.RowEvent) error {
	r.relative = append(r.relative, ev.Relative)
	if ev.Record != nil {
		r.names = append(r.names, ev.Record["name"])
	}
	return nil
}

func (r *rowRecorder) WorkbookDisposed() error {
	r.disposed = true
	return nil
}

func TestFillHandlers(t *testing.T) {
	book := invoiceTemplate()
	rec := &rowRecorder{}
	e := newEngine(rec, handler.LoopMerge{EachRow: 1, Col: 3, ColSpan: 2})

	_, err := e.Fill(context.Background(), book, invoice(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 1, 2, 0}, rec.relative)
	assert.Equal(t, []interface{}{"A", "B", "C"}, rec.names)
	assert.True(t, rec.disposed)

	merges, _ := book.Get("Sheet1").Merges()
	assert.Contains(t, merges, cell.Region{FirstRow: 3, LastRow: 3, FirstCol: 3, LastCol: 4})
}

func TestFillSelectedSheets(t *testing.T) {
	book := memory.New()
	book.Add("A", cell.RowOf(0, cell.Text("{title}")))
	book.Add("B", cell.RowOf(0, cell.Text("{title}")))

	_, err := newEngine().Fill(context.Background(), book, invoice(), Options{Sheets: []string{"B"}})
	require.NoError(t, err)

	assert.Equal(t, "{title}", book.Get("A").Value(0, 0).Text)
	assert.Equal(t, "Invoice", book.Get("B").Value(0, 0).Text)
}

func TestFillConversionError(t *testing.T) {
	book := memory.New()
	book.Add("Sheet1", cell.RowOf(0, cell.Text("x"), cell.Text("{logo:image}")))

	_, err := newEngine().Fill(context.Background(), book, map[string]interface{}{"logo": 42}, Options{})
	require.Error(t, err)
	var e *sheeterr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, sheeterr.Conversion, e.Kind)
	assert.Equal(t, 0, e.Row)
	assert.Equal(t, 1, e.Col)
	assert.Equal(t, "logo", e.Field)
}
