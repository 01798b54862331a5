package cell

import (
	"strconv"
	"strings"
	"time"
)

// Kind of cell primitive.
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindTemporal
	KindRichText
	KindFormula
	KindImage
)

var kindNames = [...]string{"none", "text", "number", "boolean", "temporal", "rich_text", "formula", "image"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Font of a rich text run. Zero value inherits the cell font.
type Font struct {
	Family string
	Size   float64
	Color  string
	Bold   bool
	Italic bool
}

// RichTextRun is a text fragment with its own font.
type RichTextRun struct {
	Text string
	Font *Font
}

// Image reference embedded at a cell.
type Image struct {
	Data      []byte
	Extension string
	ScaleX    float64
	ScaleY    float64
}

// Value is a tagged union of the cell primitives.
// Style is a backend style id (0 means the backend default), Format is a
// number/date format hint the backend turns into a style when Style is 0.
// RowSpan and ColSpan describe an authored merge anchored at the cell.
type Value struct {
	Kind    Kind
	Text    string
	Number  float64
	Bool    bool
	Time    time.Time
	Runs    []RichTextRun
	Image   *Image
	Style   int
	Format  string
	RowSpan int
	ColSpan int
}

// None is the empty cell.
func None() Value { return Value{} }

// Text cell.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number cell.
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// Bool cell.
func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

// Temporal cell rendered with format.
func Temporal(t time.Time, format string) Value {
	return Value{Kind: KindTemporal, Time: t, Format: format}
}

// Rich text cell.
func Rich(runs ...RichTextRun) Value { return Value{Kind: KindRichText, Runs: runs} }

// Formula cell, without the leading '='.
func Formula(expr string) Value {
	return Value{Kind: KindFormula, Text: strings.TrimPrefix(expr, "=")}
}

// ImageOf builds an image reference cell.
func ImageOf(data []byte, extension string) Value {
	return Value{Kind: KindImage, Image: &Image{Data: data, Extension: extension}}
}

// IsEmpty reports whether the cell carries no content.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindNone:
		return true
	case KindText, KindFormula:
		return v.Text == ""
	case KindRichText:
		return v.PlainText() == ""
	case KindImage:
		return v.Image == nil || len(v.Image.Data) == 0
	}
	return false
}

// PlainText returns the textual content of the cell, concatenating rich text runs.
func (v Value) PlainText() string {
	switch v.Kind {
	case KindText, KindFormula:
		return v.Text
	case KindRichText:
		var b strings.Builder
		for _, r := range v.Runs {
			b.WriteString(r.Text)
		}
		return b.String()
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindTemporal:
		return v.Time.Format("2006-01-02 15:04:05")
	}
	return ""
}

// WithStyle returns a copy of v carrying style.
func (v Value) WithStyle(style int) Value {
	v.Style = style
	return v
}

// Merged reports whether the cell anchors an authored merge.
func (v Value) Merged() bool { return v.RowSpan > 1 || v.ColSpan > 1 }
