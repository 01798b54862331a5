// Package config reads pipeline options from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/geoirb/sheetbind/internal/convert"
	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/writer"
)

// Prefix of every variable, e.g. SHEETBIND_BATCH_SIZE.
const Prefix = "SHEETBIND"

// Options shared by the command line tool and the service.
type Options struct {
	BatchSize         int     `envconfig:"BATCH_SIZE" default:"100"`
	HeaderRows        int     `envconfig:"HEADER_ROWS" default:"1"`
	Locale            string  `envconfig:"LOCALE" default:""`
	DateFormat        string  `envconfig:"DATE_FORMAT" default:"yyyy-MM-dd HH:mm:ss"`
	DateOnlyFormat    string  `envconfig:"DATE_ONLY_FORMAT" default:"yyyy-MM-dd"`
	TimeZone          string  `envconfig:"TIME_ZONE" default:"UTC"`
	Tolerance         float64 `envconfig:"TOLERANCE" default:"0.000001"`
	Date1904          bool    `envconfig:"DATE1904" default:"false"`
	QRCodeSize        int     `envconfig:"QR_CODE_SIZE" default:"256"`
	SubstituteOnError bool    `envconfig:"SUBSTITUTE_ON_ERROR" default:"false"`
	AutoMergeHead     bool    `envconfig:"AUTO_MERGE_HEAD" default:"true"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads Options from the environment.
func Load() (opts Options, err error) {
	err = envconfig.Process(Prefix, &opts)
	return
}

// Registry returns the converter configuration.
func (o Options) Registry() (cfg convert.Config, err error) {
	cfg = convert.Config{
		Locale:         o.Locale,
		Tolerance:      o.Tolerance,
		Date1904:       o.Date1904,
		DateTimeFormat: o.DateFormat,
		DateFormat:     o.DateOnlyFormat,
		QRCodeSize:     o.QRCodeSize,
	}
	if cfg.Location, err = time.LoadLocation(o.TimeZone); err != nil {
		return
	}
	return
}

// Schema returns the resolver options.
func (o Options) Schema() schema.Options {
	return schema.Options{AutoMergeHead: o.AutoMergeHead}
}

// Reader returns the base read options.
func (o Options) Reader() reader.Options {
	return reader.Options{
		HeadRows:          o.HeaderRows,
		SchemaOptions:     o.Schema(),
		SubstituteOnError: o.SubstituteOnError,
	}
}

// Writer returns the base write options.
func (o Options) Writer() writer.Options {
	return writer.Options{
		BatchSize:     o.BatchSize,
		SchemaOptions: o.Schema(),
	}
}
