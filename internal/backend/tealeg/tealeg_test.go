package tealeg

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

func TestWriteThenVisit(t *testing.T) {
	date := time.Date(2021, time.March, 4, 10, 30, 0, 0, time.UTC)

	w := NewWorkbook()
	sink, err := w.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, sink.SetColumnWidth(0, 20))
	require.NoError(t, sink.WriteRows([]cell.Row{
		cell.RowOf(0, cell.Text("name"), cell.Text("score"), cell.Text("active"), cell.Text("seen")),
		cell.RowOf(1, cell.Text("Ann"), cell.Number(9.5), cell.Bool(true), cell.Temporal(date, "yyyy-mm-dd hh:mm")),
	}))
	require.NoError(t, sink.WriteRows([]cell.Row{cell.RowOf(3, cell.Text("Bob"))}))
	require.NoError(t, sink.Merge(cell.Region{FirstRow: 3, LastRow: 3, FirstCol: 0, LastCol: 1}))
	require.NoError(t, sink.SetDimension(cell.Region{LastRow: 3, LastCol: 3}))
	require.NoError(t, sink.Close())

	err = sink.WriteRows([]cell.Row{cell.RowOf(4, cell.ImageOf([]byte{1}, ".png"))})
	assert.True(t, errors.Is(err, sheeterr.ErrBackend))

	other, err := w.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, other.WriteRows([]cell.Row{cell.RowOf(0, cell.Text("x"))}))

	var buf bytes.Buffer
	require.NoError(t, w.Save(&buf))
	require.NoError(t, w.Close())

	r, err := OpenBinary(buf.Bytes())
	require.NoError(t, err)
	defer r.Close()

	require.Len(t, r.Sheets(), 2)
	assert.Equal(t, "Other", r.Sheets()[1].Name)
	assert.False(t, r.Date1904())

	var rows []cell.Row
	require.NoError(t, r.Visit(context.Background(), "Data", func(row cell.Row) error {
		rows = append(rows, row)
		return nil
	}))
	require.Len(t, rows, 3)
	assert.Equal(t, 3, rows[2].Index)

	v, _ := rows[1].Get(0)
	assert.Equal(t, cell.Text("Ann"), v)
	v, _ = rows[1].Get(1)
	assert.Equal(t, cell.KindNumber, v.Kind)
	assert.Equal(t, 9.5, v.Number)
	v, _ = rows[1].Get(2)
	assert.Equal(t, cell.Bool(true), v)
	v, _ = rows[1].Get(3)
	require.Equal(t, cell.KindTemporal, v.Kind)
	assert.WithinDuration(t, date, v.Time, time.Second)
}

func TestVisitStopsAndMissingSheet(t *testing.T) {
	w := NewWorkbook()
	sink, err := w.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, sink.WriteRows([]cell.Row{
		cell.RowOf(0, cell.Text("a")),
		cell.RowOf(1, cell.Text("b")),
		cell.RowOf(2, cell.Text("c")),
	}))
	var buf bytes.Buffer
	require.NoError(t, w.Save(&buf))

	r, err := OpenBinary(buf.Bytes())
	require.NoError(t, err)
	defer r.Close()

	stop := errors.New("stop")
	seen := 0
	err = r.Visit(context.Background(), "Data", func(cell.Row) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 2, seen)

	err = r.Visit(context.Background(), "Nope", func(cell.Row) error { return nil })
	assert.True(t, errors.Is(err, sheeterr.ErrBackend))
}
