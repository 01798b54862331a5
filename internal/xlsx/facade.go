// Package xlsx binds records and templates to xlsx documents on the excelize backend.
package xlsx

import (
	"bytes"
	"context"
	"io"

	"github.com/go-kit/kit/log"

	"github.com/geoirb/sheetbind/internal/backend/excel"
	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/fill"
	"github.com/geoirb/sheetbind/internal/handler"
	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
	"github.com/geoirb/sheetbind/internal/writer"
)

type qrcode interface {
	Create(payload string, size int) ([]byte, error)
}

// Facade for xlsx
type Facade struct {
	registry *convert.Registry
	chain    *handler.Chain
	engine   *fill.Engine
	reader   *reader.Pipeline

	logger log.Logger
}

// NewFacade returns a facade whose ":qr_code" placeholders are rendered by qrcode.
func NewFacade(
	cfg convert.Config,
	qrcode qrcode,
	chain *handler.Chain,
	logger log.Logger,
) *Facade {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	var opts []convert.Option
	if qrcode != nil {
		opts = append(opts, convert.WithQRCode(qrcode))
	}
	registry := convert.NewRegistry(cfg, opts...)
	return &Facade{
		registry: registry,
		chain:    chain,
		engine:   fill.New(registry, chain, log.With(logger, "component", "fill")),
		reader:   reader.New(registry, chain, log.With(logger, "component", "reader")),
		logger:   logger,
	}
}

// FillIn fills the template file with payload and returns the document.
func (s *Facade) FillIn(ctx context.Context, template string, payload interface{}) (r io.Reader, warnings []sheeterr.Warning, err error) {
	t, err := excel.OpenTemplateFile(template)
	if err != nil {
		return
	}
	defer t.Close()

	res, err := s.engine.Fill(ctx, t, payload, fill.Options{})
	if err != nil {
		return
	}
	warnings = res.Warnings

	var result bytes.Buffer
	if err = t.Save(&result); err != nil {
		return
	}
	r = &result
	return
}

// Export writes records to a new document with one sheet.
func (s *Facade) Export(ctx context.Context, sheet string, shape *schema.Shape, records []schema.Record, opts writer.Options) (r io.Reader, err error) {
	wb := excel.NewWorkbook()
	defer wb.Close()

	session := writer.New(wb, s.registry, s.chain, log.With(s.logger, "component", "writer"), opts)
	if _, err = session.Write(ctx, writer.Target{Sheet: sheet, Shape: shape}, writer.Records(records...)); err != nil {
		session.Close()
		return
	}

	var result bytes.Buffer
	if err = session.Save(&result); err != nil {
		return
	}
	r = &result
	return
}

// Import reads every record of the selected sheets of the document at file.
func (s *Facade) Import(ctx context.Context, file string, opts reader.Options) (records []reader.Record, warnings []sheeterr.Warning, err error) {
	src, err := excel.Open(file)
	if err != nil {
		return
	}
	records, res, err := reader.ReadAll(ctx, s.reader, src, opts)
	warnings = res.Warnings
	return
}
