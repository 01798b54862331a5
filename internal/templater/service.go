package templater

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
	"github.com/geoirb/sheetbind/internal/writer"
)

type fillInFunc func(ctx context.Context, template string, payload interface{}) (io.Reader, []sheeterr.Warning, error)

type exportFunc func(ctx context.Context, sheet string, shape *schema.Shape, records []schema.Record, opts writer.Options) (io.Reader, error)

type importFunc func(ctx context.Context, file string, opts reader.Options) ([]reader.Record, []sheeterr.Warning, error)

type path interface {
	Template(name string) string
	Schema(name string) string
	TmpFile(suffix string) string
}

type parser interface {
	Type(filename string) (string, error)
}

type service struct {
	fillIn map[string]fillInFunc
	export map[string]exportFunc
	load   map[string]importFunc

	path       path
	parser     parser
	writerOpts writer.Options
	readerOpts reader.Options

	logger log.Logger
}

// NewService ...
func NewService(
	path path,
	parser parser,

	xlsxFillIn fillInFunc,
	xlsxExport exportFunc,
	xlsxImport importFunc,
	writerOpts writer.Options,
	readerOpts reader.Options,

	logger log.Logger,
) Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &service{
		path:       path,
		parser:     parser,
		writerOpts: writerOpts,
		readerOpts: readerOpts,
		logger:     logger,
	}

	s.fillIn = map[string]fillInFunc{
		"xlsx": xlsxFillIn,
	}
	s.export = map[string]exportFunc{
		"xlsx": xlsxExport,
	}
	s.load = map[string]importFunc{
		"xlsx": xlsxImport,
	}
	return s
}

// FillIn fills template by req.
func (s *service) FillIn(ctx context.Context, req Request) (res Response, err error) {
	logger := log.WithPrefix(s.logger, "method", "FillIn", "uuid", req.UUID)

	res = Response{
		UUID:   req.UUID,
		UserID: req.UserID,
	}

	templateType, err := s.parser.Type(req.Template)
	if err != nil {
		level.Error(logger).Log("msg", "template type", "err", err)
		return
	}
	fillIn, isExist := s.fillIn[templateType]
	if !isExist {
		level.Error(logger).Log("msg", "unknown type", "type", templateType)
		err = fmt.Errorf("%s: %w", templateType, errUnknownTemplateType)
		return
	}

	templatePath := s.path.Template(req.Template)
	result, warnings, err := fillIn(ctx, templatePath, req.Payload)
	if err != nil {
		level.Error(logger).Log("msg", "fill in template", "template", req.Template, "err", err)
		return
	}
	for _, w := range warnings {
		level.Warn(logger).Log("msg", "fill in template", "warning", w)
		res.Warnings = append(res.Warnings, w.String())
	}
	if res.Document, err = io.ReadAll(result); err != nil {
		level.Error(logger).Log("msg", "read result", "err", err)
	}
	return
}

// Export writes req.Records with the shape named by req.
func (s *service) Export(ctx context.Context, req ExportRequest) (res Response, err error) {
	logger := log.WithPrefix(s.logger, "method", "Export", "uuid", req.UUID)

	res = Response{
		UUID:   req.UUID,
		UserID: req.UserID,
	}

	documentType := req.Type
	if documentType == "" {
		documentType = "xlsx"
	}
	export, isExist := s.export[documentType]
	if !isExist {
		level.Error(logger).Log("msg", "unknown type", "type", documentType)
		err = fmt.Errorf("%s: %w", documentType, errUnknownDocumentType)
		return
	}

	shape, err := s.shape(req.Shape)
	if err != nil {
		level.Error(logger).Log("msg", "load shape", "shape", req.Shape, "err", err)
		return
	}
	sheet := req.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}

	result, err := export(ctx, sheet, shape, req.Records, s.writerOpts)
	if err != nil {
		level.Error(logger).Log("msg", "export", "shape", req.Shape, "err", err)
		return
	}
	if res.Document, err = io.ReadAll(result); err != nil {
		level.Error(logger).Log("msg", "read result", "err", err)
	}
	level.Debug(logger).Log("msg", "export", "records", len(req.Records), "size", len(res.Document))
	return
}

// Import spools req.Document to a temporary file and reads its records.
func (s *service) Import(ctx context.Context, req ImportRequest) (res ImportResponse, err error) {
	logger := log.WithPrefix(s.logger, "method", "Import", "uuid", req.UUID)

	res = ImportResponse{
		UUID:   req.UUID,
		UserID: req.UserID,
	}

	documentType := req.Type
	if documentType == "" {
		documentType = "xlsx"
	}
	load, isExist := s.load[documentType]
	if !isExist {
		level.Error(logger).Log("msg", "unknown type", "type", documentType)
		err = fmt.Errorf("%s: %w", documentType, errUnknownDocumentType)
		return
	}

	opts := s.readerOpts
	if opts.Shape, err = s.shape(req.Shape); err != nil {
		level.Error(logger).Log("msg", "load shape", "shape", req.Shape, "err", err)
		return
	}
	if len(req.Sheets) > 0 {
		opts.Sheets, opts.SheetIndexes = req.Sheets, nil
	}
	if req.HeadRows > 0 {
		opts.HeadRows = req.HeadRows
	}

	file, err := s.spool(req.Document, "."+documentType)
	if err != nil {
		level.Error(logger).Log("msg", "spool document", "err", err)
		return
	}
	defer os.Remove(file)

	records, warnings, err := load(ctx, file, opts)
	if err != nil {
		level.Error(logger).Log("msg", "import", "shape", req.Shape, "err", err)
		return
	}
	for _, w := range warnings {
		level.Warn(logger).Log("msg", "import", "warning", w)
		res.Warnings = append(res.Warnings, w.String())
	}
	res.Records = records
	level.Debug(logger).Log("msg", "import", "records", len(records))
	return
}

func (s *service) shape(name string) (*schema.Shape, error) {
	if name == "" {
		return nil, nil
	}
	shape, err := schema.LoadShape(s.path.Schema(name))
	if err != nil {
		return nil, err
	}
	return &shape, nil
}

func (s *service) spool(document io.Reader, suffix string) (file string, err error) {
	file = s.path.TmpFile(suffix)
	out, err := os.Create(file)
	if err != nil {
		return
	}
	if _, err = io.Copy(out, document); err != nil {
		out.Close()
		os.Remove(file)
		return
	}
	if err = out.Close(); err != nil {
		os.Remove(file)
	}
	return
}
