package templater_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/parser"
	"github.com/geoirb/sheetbind/internal/path"
	"github.com/geoirb/sheetbind/internal/qrcode"
	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
	"github.com/geoirb/sheetbind/internal/templater"
	"github.com/geoirb/sheetbind/internal/writer"
	"github.com/geoirb/sheetbind/internal/xlsx"
)

const shape = `name: items
fields:
  - name: name
    type: string
    title: Name
  - name: qty
    type: int
    title: Quantity
`

func newService(t *testing.T) templater.Service {
	dir := t.TempDir()
	for _, sub := range []string{"templates", "schemas", "tmp"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, sub), 0o755))
	}

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "{title}")
	f.SetCellValue("Sheet1", "A2", "{unknown}")
	require.NoError(t, f.SaveAs(filepath.Join(dir, "templates", "report.xlsx")))
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schemas", "items.yaml"), []byte(shape), 0o644))

	p, err := path.NewBuilder(
		filepath.Join(dir, "templates"),
		filepath.Join(dir, "schemas"),
		filepath.Join(dir, "tmp"),
		uuid.NewString,
	)
	require.NoError(t, err)
	typeParser, err := parser.New()
	require.NoError(t, err)

	facade := xlsx.NewFacade(convert.DefaultConfig(), qrcode.NewCreator(), nil, nil)
	return templater.NewService(
		p,
		typeParser,
		facade.FillIn,
		facade.Export,
		facade.Import,
		writer.Options{},
		reader.Options{HeadRows: 1},
		nil,
	)
}

func TestFillIn(t *testing.T) {
	svc := newService(t)

	res, err := svc.FillIn(context.Background(), templater.Request{
		UserID:   7,
		UUID:     "req-1",
		Template: "report.xlsx",
		Payload:  map[string]interface{}{"title": "Monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", res.UUID)
	assert.Equal(t, 7, res.UserID)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "{unknown}")

	f, err := excelize.OpenReader(bytes.NewReader(res.Document))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Monthly", v)
}

func TestFillInUnknownType(t *testing.T) {
	svc := newService(t)

	res, err := svc.FillIn(context.Background(), templater.Request{UUID: "req-2", Template: "report.docx"})
	assert.Error(t, err)
	assert.Equal(t, "req-2", res.UUID)
	assert.Empty(t, res.Document)

	_, err = svc.FillIn(context.Background(), templater.Request{Template: "report"})
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	svc := newService(t)

	res, err := svc.Export(context.Background(), templater.ExportRequest{
		UUID:  "req-3",
		Shape: "items",
		Sheet: "Items",
		Records: []schema.Record{
			{"name": "A", "qty": 1},
			{"name": "B", "qty": 2},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(res.Document))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Items")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Quantity"}, {"A", "1"}, {"B", "2"}}, rows)
}

func TestExportErrors(t *testing.T) {
	svc := newService(t)

	_, err := svc.Export(context.Background(), templater.ExportRequest{Shape: "missing"})
	assert.Error(t, err)

	_, err = svc.Export(context.Background(), templater.ExportRequest{Type: "pdf"})
	assert.Error(t, err)

	_, err = svc.Export(context.Background(), templater.ExportRequest{
		Shape:   "items",
		Records: []schema.Record{{"name": "A", "qty": "many"}},
	})
	assert.True(t, errors.Is(err, sheeterr.ErrConversion))
}

func TestImport(t *testing.T) {
	svc := newService(t)

	exported, err := svc.Export(context.Background(), templater.ExportRequest{
		Shape: "items",
		Sheet: "Items",
		Records: []schema.Record{
			{"name": "A", "qty": 1},
			{"name": "B", "qty": 2},
		},
	})
	require.NoError(t, err)

	res, err := svc.Import(context.Background(), templater.ImportRequest{
		UserID:   3,
		UUID:     "req-4",
		Shape:    "items",
		Document: bytes.NewReader(exported.Document),
	})
	require.NoError(t, err)
	assert.Equal(t, "req-4", res.UUID)
	assert.Equal(t, 3, res.UserID)
	assert.Empty(t, res.Warnings)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Items", res.Records[0].Sheet)
	assert.Equal(t, schema.Record{"name": "A", "qty": int64(1)}, res.Records[0].Values)
	assert.Equal(t, schema.Record{"name": "B", "qty": int64(2)}, res.Records[1].Values)
}

func TestImportErrors(t *testing.T) {
	svc := newService(t)

	_, err := svc.Import(context.Background(), templater.ImportRequest{Type: "pdf", Document: bytes.NewReader(nil)})
	assert.Error(t, err)

	_, err = svc.Import(context.Background(), templater.ImportRequest{Shape: "missing", Document: bytes.NewReader(nil)})
	assert.Error(t, err)

	_, err = svc.Import(context.Background(), templater.ImportRequest{Document: bytes.NewReader([]byte("not a workbook"))})
	assert.Error(t, err)
}
