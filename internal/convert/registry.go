package convert

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/geoirb/sheetbind/internal/cell"
	"github.com/geoirb/sheetbind/internal/qrcode"
	"github.com/geoirb/sheetbind/internal/sheeterr"
)

type qrCreator interface {
	Create(payload string, size int) ([]byte, error)
}

// Registry resolves converters by explicit name first, then by declared type.
// A registry is mutable until Snapshot; snapshots are safe for concurrent use.
type Registry struct {
	cfg    Config
	byType map[Type]Converter
	named  map[string]Converter
	frozen bool

	// formatter caches, shared by snapshots of the same registry.
	layouts *sync.Map
	locales *sync.Map
}

// Option configures a registry.
type Option func(r *Registry)

// WithQRCode registers the "qrcode" named converter backed by creator.
func WithQRCode(creator qrCreator) Option {
	return func(r *Registry) {
		r.named["qrcode"] = qrCodeConverter{creator: creator}
	}
}

// NewRegistry returns a registry holding every built-in converter.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	r := &Registry{
		cfg:     cfg.withDefaults(),
		byType:  make(map[Type]Converter),
		named:   make(map[string]Converter),
		layouts: &sync.Map{},
		locales: &sync.Map{},
	}
	r.byType[TypeString] = stringConverter{}
	for _, t := range []Type{TypeInt, TypeInt32, TypeInt16, TypeInt8, TypeFloat, TypeFloat32} {
		r.byType[t] = numberConverter{}
	}
	r.byType[TypeBool] = boolConverter{}
	r.byType[TypeDate] = temporalConverter{}
	r.byType[TypeDateTime] = temporalConverter{}
	r.byType[TypeRichText] = richTextConverter{}
	r.byType[TypeImage] = imageConverter{}
	r.byType[TypeFormula] = formulaConverter{}
	r.named["qrcode"] = qrCodeConverter{creator: qrcode.NewCreator()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the configuration snapshot.
func (r *Registry) Config() Config { return r.cfg }

// Register sets the default converter of type t.
func (r *Registry) Register(t Type, c Converter) error {
	if r.frozen {
		return fmt.Errorf("register %q: registry snapshot is read-only", t)
	}
	r.byType[t] = c
	return nil
}

// RegisterNamed adds a converter referenced by Spec.Converter.
func (r *Registry) RegisterNamed(name string, c Converter) error {
	if r.frozen {
		return fmt.Errorf("register %q: registry snapshot is read-only", name)
	}
	r.named[name] = c
	return nil
}

// Snapshot returns a read-only copy taken at pipeline start.
func (r *Registry) Snapshot() *Registry {
	s := &Registry{
		cfg:     r.cfg,
		byType:  make(map[Type]Converter, len(r.byType)),
		named:   make(map[string]Converter, len(r.named)),
		frozen:  true,
		layouts: r.layouts,
		locales: r.locales,
	}
	for k, v := range r.byType {
		s.byType[k] = v
	}
	for k, v := range r.named {
		s.named[k] = v
	}
	return s
}

// WithDate1904 returns a snapshot reading serial dates in the 1904 date system.
func (r *Registry) WithDate1904() *Registry {
	s := r.Snapshot()
	s.cfg.Date1904 = true
	return s
}

func (r *Registry) lookup(s Spec) (Converter, error) {
	if s.Converter != "" {
		if c, ok := r.named[s.Converter]; ok {
			return c, nil
		}
		return nil, sheeterr.Newf(sheeterr.Conversion, "unknown converter %q", s.Converter)
	}
	if c, ok := r.byType[s.Type]; ok {
		return c, nil
	}
	return nil, sheeterr.Newf(sheeterr.Conversion, "no converter for type %q", s.Type)
}

// Encode converts v into a cell for a field declared with s.
func (r *Registry) Encode(v interface{}, s Spec) (cell.Value, error) {
	if v == nil {
		return cell.None(), nil
	}
	if s.Type == TypeAny && s.Converter == "" {
		return r.EncodeAuto(v)
	}
	c, err := r.lookup(s)
	if err != nil {
		return cell.Value{}, err
	}
	return c.Encode(r, v, s)
}

// Decode converts c into the field's declared type. Empty cells decode to nil.
func (r *Registry) Decode(c cell.Value, s Spec) (interface{}, error) {
	if c.Kind == cell.KindNone {
		return nil, nil
	}
	if s.Type == TypeAny && s.Converter == "" {
		return decodeAuto(c), nil
	}
	conv, err := r.lookup(s)
	if err != nil {
		return nil, err
	}
	return conv.Decode(r, c, s)
}

// EncodeAuto infers the cell primitive from the runtime type of v.
func (r *Registry) EncodeAuto(v interface{}) (cell.Value, error) {
	switch x := v.(type) {
	case nil:
		return cell.None(), nil
	case cell.Value:
		return x, nil
	case string:
		return cell.Text(x), nil
	case bool:
		return cell.Bool(x), nil
	case time.Time:
		return r.Encode(x, Spec{Type: TypeDateTime})
	case []cell.RichTextRun:
		return cell.Rich(x...), nil
	case []byte, *cell.Image, cell.Image:
		return r.Encode(x, Spec{Type: TypeImage})
	case json.Number:
		return r.Encode(x, Spec{Type: TypeFloat})
	case fmt.Stringer:
		return cell.Text(x.String()), nil
	}
	if isNumeric(v) {
		return r.Encode(v, Spec{Type: TypeFloat})
	}
	return cell.Text(fmt.Sprint(v)), nil
}

// Format renders v as text the way a field with s would display it.
func (r *Registry) Format(v interface{}, s Spec) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case cell.Value:
		return x.PlainText(), nil
	case time.Time:
		pattern := s.Format
		if pattern == "" {
			pattern = r.cfg.DateTimeFormat
			if s.Type == TypeDate {
				pattern = r.cfg.DateFormat
			}
		}
		return r.formatTime(x, pattern, s.Locale), nil
	case bool:
		return strconv.FormatBool(x), nil
	case []cell.RichTextRun:
		return cell.Rich(x...).PlainText(), nil
	}
	if isNumeric(v) {
		f, _, err := toFloat(v)
		if err != nil {
			return "", err
		}
		if s.Format != "" {
			return r.formatNumber(f, s.Format, s.Locale), nil
		}
		return formatPlain(v, f), nil
	}
	return fmt.Sprint(v), nil
}

func decodeAuto(c cell.Value) interface{} {
	switch c.Kind {
	case cell.KindNumber:
		return c.Number
	case cell.KindBoolean:
		return c.Bool
	case cell.KindTemporal:
		return c.Time
	case cell.KindRichText:
		return c.Runs
	case cell.KindImage:
		return c.Image
	}
	return c.Text
}

func conversionf(format string, args ...interface{}) *sheeterr.Error {
	return sheeterr.Newf(sheeterr.Conversion, format, args...)
}

func toleranceErr(format string, args ...interface{}) *sheeterr.Error {
	e := sheeterr.Newf(sheeterr.Conversion, format, args...)
	e.ToleranceExceeded = true
	return e
}
