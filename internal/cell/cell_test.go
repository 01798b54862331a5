package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowSetKeepsOrder(t *testing.T) {
	r := NewRow(0)
	r.Set(3, Text("d"))
	r.Set(0, Text("a"))
	r.Set(2, Text("c"))
	r.Set(0, Text("A"))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{0, 2, 3}, []int{r.Cells[0].Col, r.Cells[1].Col, r.Cells[2].Col})
	v, ok := r.Get(0)
	assert.True(t, ok)
	assert.Equal(t, "A", v.Text)
	_, ok = r.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 3, r.LastCol())
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "ab", Rich(RichTextRun{Text: "a"}, RichTextRun{Text: "b"}).PlainText())
	assert.Equal(t, "1.5", Number(1.5).PlainText())
	assert.True(t, Text("").IsEmpty())
	assert.False(t, Bool(false).IsEmpty())
	assert.Equal(t, "SUM(A1:A2)", Formula("=SUM(A1:A2)").Text)
}

func TestCheckRegions(t *testing.T) {
	ok := []Region{
		{FirstRow: 0, LastRow: 1, FirstCol: 0, LastCol: 1},
		{FirstRow: 0, LastRow: 0, FirstCol: 2, LastCol: 3},
		{FirstRow: 5, LastRow: 5, FirstCol: 0, LastCol: 3},
	}
	assert.NoError(t, CheckRegions(ok))

	bad := append(ok, Region{FirstRow: 1, LastRow: 2, FirstCol: 1, LastCol: 1})
	assert.Error(t, CheckRegions(bad))

	assert.Error(t, CheckRegions([]Region{{FirstRow: 2, LastRow: 1}}))
}
