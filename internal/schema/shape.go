package schema

import (
	"github.com/geoirb/sheetbind/internal/convert"
)

// Record is one row of application data keyed by field name.
type Record map[string]interface{}

// Field declares how one record field maps to a column.
type Field struct {
	Name string       `yaml:"name"`
	Type convert.Type `yaml:"type"`
	// Title is the header path of the column, top level first. Empty means Name.
	Title Titles `yaml:"title"`
	// Index pins the field to a zero-based column.
	Index     *int    `yaml:"index"`
	Format    string  `yaml:"format"`
	Locale    string  `yaml:"locale"`
	Converter string  `yaml:"converter"`
	Width     float64 `yaml:"width"`
	Ignore    bool    `yaml:"ignore"`
}

// Spec returns the conversion descriptor of the field.
func (f Field) Spec() convert.Spec {
	return convert.Spec{
		Type:      f.Type,
		Format:    f.Format,
		Locale:    f.Locale,
		Converter: f.Converter,
	}
}

// Explicit reports whether the field pins its column.
func (f Field) Explicit() bool { return f.Index != nil }

func (f Field) titles() []string {
	if len(f.Title) == 0 {
		return []string{f.Name}
	}
	return f.Title
}

// Shape is the declarative record descriptor, built once at startup.
type Shape struct {
	Name   string  `yaml:"name"`
	Fields []Field `yaml:"fields"`
}

// Index returns a pointer usable as Field.Index.
func Index(i int) *int { return &i }
