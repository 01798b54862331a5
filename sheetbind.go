// Package sheetbind binds records to xlsx documents: streaming reads into
// records, streaming writes of records and template filling.
package sheetbind

import (
	"context"
	"io"
	"os"

	"github.com/go-kit/kit/log"

	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/qrcode"
	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
	"github.com/geoirb/sheetbind/internal/writer"
	"github.com/geoirb/sheetbind/internal/xlsx"
)

type (
	// Shape declares the fields of a record.
	Shape  = schema.Shape
	Field  = schema.Field
	Titles = schema.Titles
	Record = schema.Record
	// Row is a record read from a sheet.
	Row          = reader.Record
	ReadOptions  = reader.Options
	WriteOptions = writer.Options
	Config       = convert.Config
	Warning      = sheeterr.Warning
	Error        = sheeterr.Error
)

// Index returns a pointer usable as Field.Index.
func Index(i int) *int { return schema.Index(i) }

type options struct {
	cfg      Config
	handlers []interface{}
	logger   log.Logger
}

// Option configures a Templater.
type Option func(o *options)

// WithConfig sets formats, locale and tolerance of conversions.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithHandlers registers lifecycle handlers, invoked in order.
func WithHandlers(handlers ...interface{}) Option {
	return func(o *options) { o.handlers = append(o.handlers, handlers...) }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Templater reads, writes and fills xlsx documents.
type Templater struct {
	facade *xlsx.Facade
}

// NewTemplater returns a templater with the default configuration unless overridden.
func NewTemplater(opts ...Option) *Templater {
	o := options{cfg: convert.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Templater{
		facade: xlsx.NewFacade(o.cfg, qrcode.NewCreator(), handler.NewChain(o.handlers...), o.logger),
	}
}

// FillIn fills the template at templatePath with payload.
func (t *Templater) FillIn(ctx context.Context, templatePath string, payload interface{}) (io.Reader, []Warning, error) {
	return t.facade.FillIn(ctx, templatePath, payload)
}

// ReadFile reads every record of the selected sheets of the document at file.
func (t *Templater) ReadFile(ctx context.Context, file string, opts ReadOptions) ([]Row, []Warning, error) {
	return t.facade.Import(ctx, file, opts)
}

// WriteFile writes records to a one sheet document at file.
func (t *Templater) WriteFile(ctx context.Context, file, sheet string, shape *Shape, records []Record, opts WriteOptions) (err error) {
	r, err := t.facade.Export(ctx, sheet, shape, records, opts)
	if err != nil {
		return
	}
	out, err := os.Create(file)
	if err != nil {
		return
	}
	if _, err = io.Copy(out, r); err != nil {
		out.Close()
		return
	}
	return out.Close()
}

// ReadFile reads the document at file with the default configuration.
func ReadFile(ctx context.Context, file string, opts ReadOptions) ([]Row, []Warning, error) {
	return NewTemplater().ReadFile(ctx, file, opts)
}

// WriteFile writes records with the default configuration.
func WriteFile(ctx context.Context, file, sheet string, shape *Shape, records []Record, opts WriteOptions) error {
	return NewTemplater().WriteFile(ctx, file, sheet, shape, records, opts)
}
