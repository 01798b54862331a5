package sheeterr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("read: %w", Newf(Conversion, "bad value %q", "x").At("Data", 2, 1))

	assert.True(t, errors.Is(err, ErrConversion))
	assert.False(t, errors.Is(err, ErrSchema))
	assert.Equal(t, Conversion, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	err := New(Conversion, errors.New("overflow")).At("Data", 2, 1).WithField("age")
	err.ToleranceExceeded = true

	assert.Equal(t, `conversion (tolerance exceeded) error at sheet "Data" cell B3 field "age": overflow`, err.Error())
}

func TestLocate(t *testing.T) {
	cause := errors.New("boom")

	wrapped := Locate(cause, Backend, "S", 4, -1, "")
	assert.Equal(t, Backend, wrapped.Kind)
	assert.Equal(t, 4, wrapped.Row)
	assert.ErrorIs(t, wrapped, cause)

	inner := New(Conversion, cause).At("", -1, 3)
	located := Locate(inner, Backend, "S", 4, 9, "f")
	assert.Equal(t, Conversion, located.Kind)
	assert.Equal(t, "S", located.Sheet)
	assert.Equal(t, 4, located.Row)
	assert.Equal(t, 3, located.Col)
	assert.Equal(t, "f", located.Field)
}

func TestWarningString(t *testing.T) {
	assert.Equal(t, "Sheet1!C2: unresolved", Warning{Sheet: "Sheet1", Row: 1, Col: 2, Msg: "unresolved"}.String())
	assert.Equal(t, "Sheet1: skipped", Warning{Sheet: "Sheet1", Row: -1, Col: -1, Msg: "skipped"}.String())
}
