// Package httpapi serves the templater over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/geoirb/sheetbind/internal/templater"
)

// NewHandler routes
//
//	POST /fill/{template}  JSON payload, responds with the filled document
//	POST /export/{shape}   JSON array of records, responds with the document
//	POST /import/{shape}   document body, responds with the JSON records
func NewHandler(svc templater.Service, logger log.Logger) http.Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	opts := []kithttp.ServerOption{
		kithttp.ServerErrorEncoder(encodeError),
		kithttp.ServerErrorHandler(errorHandler{logger: logger}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Method(http.MethodPost, "/fill/{template}", kithttp.NewServer(
		makeFillInEndpoint(svc),
		decodeFillInRequest,
		encodeDocument,
		opts...,
	))
	r.Method(http.MethodPost, "/export/{shape}", kithttp.NewServer(
		makeExportEndpoint(svc),
		decodeExportRequest,
		encodeDocument,
		opts...,
	))
	r.Method(http.MethodPost, "/import/{shape}", kithttp.NewServer(
		makeImportEndpoint(svc),
		decodeImportRequest,
		encodeRecords,
		opts...,
	))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

type errorHandler struct {
	logger log.Logger
}

func (h errorHandler) Handle(ctx context.Context, err error) {
	level.Error(h.logger).Log("msg", "http request", "request_id", middleware.GetReqID(ctx), "err", err)
}
