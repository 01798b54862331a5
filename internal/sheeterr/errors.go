package sheeterr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Kind discriminates binding errors.
type Kind int

const (
	// Schema is an ambiguous or duplicate column mapping.
	Schema Kind = iota + 1
	// Conversion is a value that cannot be represented in the target type.
	Conversion
	// SchemaMismatch is a write target whose schema changed between calls.
	SchemaMismatch
	// Template is a structural merge violation during fill.
	Template
	// Backend wraps document container failures.
	Backend
)

func (k Kind) String() string {
	switch k {
	case Schema:
		return "schema"
	case Conversion:
		return "conversion"
	case SchemaMismatch:
		return "schema mismatch"
	case Template:
		return "template"
	case Backend:
		return "backend"
	}
	return "unknown"
}

// Sentinels for errors.Is.
var (
	ErrSchema         = &Error{Kind: Schema}
	ErrConversion     = &Error{Kind: Conversion}
	ErrSchemaMismatch = &Error{Kind: SchemaMismatch}
	ErrTemplate       = &Error{Kind: Template}
	ErrBackend        = &Error{Kind: Backend}
)

// Error carries the kind and the location of the offending cell.
// Row and Col are zero-based, -1 when unknown.
type Error struct {
	Kind  Kind
	Sheet string
	Row   int
	Col   int
	Field string
	// ToleranceExceeded marks a conversion that lost precision beyond the configured tolerance.
	ToleranceExceeded bool
	// Structural marks a corrupt container as opposed to bad content.
	Structural bool
	Err        error
}

// New error of kind without location.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Row: -1, Col: -1, Err: err}
}

// Newf formats the cause.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Errorf(format, args...))
}

// At returns a copy located at sheet/row/col.
func (e *Error) At(sheet string, row, col int) *Error {
	c := *e
	c.Sheet, c.Row, c.Col = sheet, row, col
	return &c
}

// WithField returns a copy naming the field.
func (e *Error) WithField(field string) *Error {
	c := *e
	c.Field = field
	return &c
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.ToleranceExceeded {
		b.WriteString(" (tolerance exceeded)")
	}
	b.WriteString(" error")
	if loc := e.location(); loc != "" {
		b.WriteString(" at ")
		b.WriteString(loc)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) location() string {
	var parts []string
	if e.Sheet != "" {
		parts = append(parts, fmt.Sprintf("sheet %q", e.Sheet))
	}
	switch axis := e.Cell(); {
	case axis != "":
		parts = append(parts, "cell "+axis)
	case e.Row >= 0:
		parts = append(parts, fmt.Sprintf("row %d", e.Row+1))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field %q", e.Field))
	}
	return strings.Join(parts, " ")
}

// Cell returns the A1 reference of the located cell, empty when unknown.
func (e *Error) Cell() string {
	if e.Row < 0 || e.Col < 0 {
		return ""
	}
	axis, err := excelize.CoordinatesToCellName(e.Col+1, e.Row+1)
	if err != nil {
		return ""
	}
	return axis
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, 0 if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Locate fills in missing location details of a binding error, or wraps a
// foreign error as kind.
func Locate(err error, kind Kind, sheet string, row, col int, field string) *Error {
	var e *Error
	if errors.As(err, &e) {
		c := *e
		if c.Sheet == "" {
			c.Sheet = sheet
		}
		if c.Row < 0 {
			c.Row = row
		}
		if c.Col < 0 {
			c.Col = col
		}
		if c.Field == "" {
			c.Field = field
		}
		return &c
	}
	return &Error{Kind: kind, Sheet: sheet, Row: row, Col: col, Field: field, Err: err}
}

// Warning is a non-fatal event collected during a session.
type Warning struct {
	Sheet string
	Row   int
	Col   int
	Msg   string
}

func (w Warning) String() string {
	if w.Row >= 0 && w.Col >= 0 {
		if axis, err := excelize.CoordinatesToCellName(w.Col+1, w.Row+1); err == nil {
			return fmt.Sprintf("%s!%s: %s", w.Sheet, axis, w.Msg)
		}
	}
	if w.Sheet != "" {
		return w.Sheet + ": " + w.Msg
	}
	return w.Msg
}
