package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const itemsShape = `name: items
fields:
  - name: name
    type: string
    title: Name
  - name: qty
    type: int
    title: Quantity
    index: 2
  - name: note
    type: string
    title: Note
`

const itemsRecords = `[
	{"name": "A", "qty": 1, "note": "first"},
	{"name": "B", "qty": 2, "note": "second"}
]`

func run(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func files(t *testing.T) (dir, shape, records string) {
	dir = t.TempDir()
	shape = filepath.Join(dir, "items.yaml")
	records = filepath.Join(dir, "items.json")
	require.NoError(t, os.WriteFile(shape, []byte(itemsShape), 0o644))
	require.NoError(t, os.WriteFile(records, []byte(itemsRecords), 0o644))
	return
}

func TestWriteRead(t *testing.T) {
	for _, backend := range []string{backendExcel, backendTealeg} {
		t.Run(backend, func(t *testing.T) {
			dir, shape, records := files(t)
			doc := filepath.Join(dir, "items.xlsx")

			out, err := run(t, "write", records, "--backend", backend, "-s", shape, "--sheet", "Items", "-o", doc)
			require.NoError(t, err)
			assert.Contains(t, out, "2 records written")

			out, err = run(t, "read", doc, "--backend", backend, "-s", shape)
			require.NoError(t, err)

			var got readOutput
			require.NoError(t, yaml.Unmarshal([]byte(out), &got))
			assert.Empty(t, got.Warnings)
			require.Len(t, got.Records, 2)
			assert.Equal(t, "Items", got.Records[0].Sheet)
			assert.Equal(t, 1, got.Records[0].Row)
			assert.Equal(t, "A", got.Records[0].Values["name"])
			assert.Equal(t, 1, got.Records[0].Values["qty"])
			assert.Equal(t, "second", got.Records[1].Values["note"])
		})
	}
}

func TestReadWithoutShape(t *testing.T) {
	dir, shape, records := files(t)
	doc := filepath.Join(dir, "items.xlsx")
	_, err := run(t, "write", records, "-s", shape, "-o", doc)
	require.NoError(t, err)

	out, err := run(t, "read", doc, "--sheet", "#0")
	require.NoError(t, err)

	var got readOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got.Records, 2)
	assert.Equal(t, "A", got.Records[0].Values["Name"])
	assert.Equal(t, "1", got.Records[0].Values["Quantity"])
}

func TestFill(t *testing.T) {
	dir := t.TempDir()
	template := filepath.Join(dir, "template.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "{title}")
	f.SetCellValue("Sheet1", "A2", "{items.name}")
	f.SetCellValue("Sheet1", "A3", "{missing}")
	require.NoError(t, f.SaveAs(template))
	require.NoError(t, f.Close())

	data := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(data, []byte("title: Report\nitems:\n  - name: A\n  - name: B\n"), 0o644))
	doc := filepath.Join(dir, "out.xlsx")

	out, err := run(t, "fill", template, "-d", data, "-o", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: ")
	assert.Contains(t, out, "{missing}")

	res, err := excelize.OpenFile(doc)
	require.NoError(t, err)
	defer res.Close()
	rows, err := res.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Report"}, {"A"}, {"B"}, {"{missing}"}}, rows)

	_, err = run(t, "fill", template, "--backend", backendTealeg, "-d", data, "-o", doc)
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	_, shape, _ := files(t)

	out, err := run(t, "schema", shape)
	require.NoError(t, err)

	var got schemaOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.HeadRows)
	assert.Equal(t, []columnOutput{
		{Field: "name", Column: "A", Type: "string", Titles: []string{"Name"}},
		{Field: "note", Column: "B", Type: "string", Titles: []string{"Note"}},
		{Field: "qty", Column: "C", Type: "int", Titles: []string{"Quantity"}},
	}, got.Columns)

	out, err = run(t, "schema", shape, "--exclude", "note")
	require.NoError(t, err)
	assert.NotContains(t, out, "note")
}

func TestUnknownBackend(t *testing.T) {
	dir, _, records := files(t)
	_, err := run(t, "write", records, "--backend", "csv", "-o", filepath.Join(dir, "x.xlsx"))
	assert.Error(t, err)
}
