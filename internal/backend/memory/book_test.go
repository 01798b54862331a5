package memory

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

func TestVisitInOrder(t *testing.T) {
	b := New()
	b.Add("A", cell.RowOf(2, cell.Text("c")), cell.RowOf(0, cell.Text("a")), cell.RowOf(1, cell.Text("b")))
	b.Add("B", cell.RowOf(0, cell.Text("x")))

	var got []string
	err := b.Visit(context.Background(), "A", func(r cell.Row) error {
		v, _ := r.Get(0)
		got = append(got, v.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 3, b.Get("A").Visited())
	assert.Equal(t, 0, b.Get("B").Visited())

	err = b.Visit(context.Background(), "missing", func(cell.Row) error { return nil })
	assert.True(t, errors.Is(err, sheeterr.ErrBackend))
}

func TestVisitStops(t *testing.T) {
	b := New()
	b.Add("A", cell.RowOf(0), cell.RowOf(1), cell.RowOf(2))
	stop := errors.New("stop")
	err := b.Visit(context.Background(), "A", func(r cell.Row) error {
		if r.Index == 1 {
			return stop
		}
		return nil
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 2, b.Get("A").Visited())
}

func TestInsertRows(t *testing.T) {
	b := New()
	s := b.Add("T",
		cell.RowOf(0, cell.Text("head")),
		cell.RowOf(1, cell.Text("{name}").WithStyle(3)),
		cell.RowOf(2, cell.Text("tail")),
	)
	require.NoError(t, s.InsertRows(1, 2))

	rows, cols := s.Dimension()
	assert.Equal(t, 5, rows)
	assert.Equal(t, 1, cols)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, "{name}", s.Value(i, 0).Text)
		assert.Equal(t, 3, s.Value(i, 0).Style)
	}
	assert.Equal(t, "tail", s.Value(4, 0).Text)

	require.NoError(t, s.SetCell(2, 0, cell.Text("B")))
	assert.Equal(t, 3, s.Value(2, 0).Style)
	assert.Equal(t, "{name}", s.Value(1, 0).Text)
}

func TestSinkAndSave(t *testing.T) {
	b := New()
	sink, err := b.NewSheet("Out")
	require.NoError(t, err)
	require.NoError(t, sink.SetColumnWidth(0, 12))
	require.NoError(t, sink.WriteRows([]cell.Row{cell.RowOf(0, cell.Text("id")), cell.RowOf(1, cell.Number(1))}))
	require.NoError(t, sink.Merge(cell.Region{FirstRow: 0, LastRow: 0, FirstCol: 0, LastCol: 1}))
	require.NoError(t, sink.SetDimension(cell.Region{LastRow: 1, LastCol: 0}))
	require.NoError(t, sink.Close())
	assert.Error(t, sink.WriteRows(nil))

	s := b.Get("Out")
	assert.Equal(t, 1, s.Batches())
	assert.Equal(t, map[int]float64{0: 12}, s.Widths())
	dim, ok := s.Declared()
	assert.True(t, ok)
	assert.Equal(t, 1, dim.LastRow)

	var buf bytes.Buffer
	require.NoError(t, b.Save(&buf))
	assert.Contains(t, buf.String(), "name: Out")
	assert.Contains(t, buf.String(), "R0C0:R0C1")
}
