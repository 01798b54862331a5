// Package logger builds the go-kit logger used by the commands.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// New returns a logger writing json or logfmt records to w, filtered by lvl.
func New(w io.Writer, format, lvl string) (logger log.Logger, err error) {
	w = log.NewSyncWriter(w)
	switch strings.ToLower(format) {
	case "", "json":
		logger = log.NewJSONLogger(w)
	case "logfmt":
		logger = log.NewLogfmtLogger(w)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	var allow level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		allow = level.AllowDebug()
	case "", "info":
		allow = level.AllowInfo()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	case "none":
		allow = level.AllowNone()
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
	logger = level.NewFilter(logger, allow)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return
}
