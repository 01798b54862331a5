package convert

import (
	"time"

	"github.com/geoirb/sheetbind/internal/cell"
)

// Type is the declared application value type of a field.
type Type string

const (
	// TypeAny infers the conversion from the runtime value.
	TypeAny      Type = ""
	TypeString   Type = "string"
	TypeInt      Type = "int"
	TypeInt32    Type = "int32"
	TypeInt16    Type = "int16"
	TypeInt8     Type = "int8"
	TypeFloat    Type = "float"
	TypeFloat32  Type = "float32"
	TypeBool     Type = "bool"
	TypeDate     Type = "date"
	TypeDateTime Type = "datetime"
	TypeRichText Type = "rich_text"
	TypeImage    Type = "image"
	TypeFormula  Type = "formula"
)

// Types lists every built-in type.
func Types() []Type {
	return []Type{
		TypeString, TypeInt, TypeInt32, TypeInt16, TypeInt8, TypeFloat, TypeFloat32,
		TypeBool, TypeDate, TypeDateTime, TypeRichText, TypeImage, TypeFormula,
	}
}

// Spec is the conversion part of a field descriptor.
type Spec struct {
	Type Type
	// Format is a date pattern (yyyy-MM-dd HH:mm:ss) or a number pattern (#,##0.00).
	Format string
	// Locale overrides the registry locale, e.g. "de-DE".
	Locale string
	// Converter names an explicit converter that takes precedence over Type.
	Converter string
}

// Config is the registry configuration snapshot.
type Config struct {
	Locale string
	// Tolerance is the relative precision loss allowed when numbers are widened or narrowed.
	Tolerance      float64
	Date1904       bool
	DateTimeFormat string
	DateFormat     string
	Location       *time.Location
	TrueStrings    []string
	FalseStrings   []string
	// QRCodeSize in pixels for the qrcode converter.
	QRCodeSize int
}

const (
	DefaultDateTimeFormat = "yyyy-MM-dd HH:mm:ss"
	DefaultDateFormat     = "yyyy-MM-dd"
	DefaultTolerance      = 1e-6
	defaultQRCodeSize     = 256
)

// DefaultConfig returns the configuration used when fields are left empty.
func DefaultConfig() Config {
	return Config{
		Tolerance:      DefaultTolerance,
		DateTimeFormat: DefaultDateTimeFormat,
		DateFormat:     DefaultDateFormat,
		Location:       time.UTC,
		TrueStrings:    []string{"true", "1", "yes", "y", "on", "t"},
		FalseStrings:   []string{"false", "0", "no", "n", "off", "f", ""},
		QRCodeSize:     defaultQRCodeSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.DateTimeFormat == "" {
		c.DateTimeFormat = d.DateTimeFormat
	}
	if c.DateFormat == "" {
		c.DateFormat = d.DateFormat
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	if len(c.TrueStrings) == 0 {
		c.TrueStrings = d.TrueStrings
	}
	if len(c.FalseStrings) == 0 {
		c.FalseStrings = d.FalseStrings
	}
	if c.QRCodeSize <= 0 {
		c.QRCodeSize = d.QRCodeSize
	}
	return c
}

// Converter maps an application value to a cell primitive and back.
type Converter interface {
	Encode(r *Registry, v interface{}, s Spec) (cell.Value, error)
	Decode(r *Registry, c cell.Value, s Spec) (interface{}, error)
}

// Funcs adapts a pair of functions to Converter. A nil side fails with a conversion error.
type Funcs struct {
	EncodeFunc func(r *Registry, v interface{}, s Spec) (cell.Value, error)
	DecodeFunc func(r *Registry, c cell.Value, s Spec) (interface{}, error)
}

func (f Funcs) Encode(r *Registry, v interface{}, s Spec) (cell.Value, error) {
	if f.EncodeFunc == nil {
		return cell.Value{}, conversionf("converter cannot encode %T", v)
	}
	return f.EncodeFunc(r, v, s)
}

func (f Funcs) Decode(r *Registry, c cell.Value, s Spec) (interface{}, error) {
	if f.DecodeFunc == nil {
		return nil, conversionf("converter cannot decode %s cell", c.Kind)
	}
	return f.DecodeFunc(r, c, s)
}
