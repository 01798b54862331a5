package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/geoirb/sheetbind/internal/response"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/sheeterr"
	"github.com/geoirb/sheetbind/internal/templater"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	headerWarning   = "X-Sheetbind-Warning"
)

type badRequest struct {
	error
}

func decodeFillInRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var payload interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, badRequest{fmt.Errorf("decode payload: %w", err)}
	}
	return templater.Request{
		UUID:     middleware.GetReqID(ctx),
		UserID:   userID(r),
		Template: chi.URLParam(r, "template"),
		Payload:  payload,
	}, nil
}

func decodeExportRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	var records []schema.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		return nil, badRequest{fmt.Errorf("decode records: %w", err)}
	}
	return templater.ExportRequest{
		UUID:    middleware.GetReqID(ctx),
		UserID:  userID(r),
		Shape:   chi.URLParam(r, "shape"),
		Sheet:   r.URL.Query().Get("sheet"),
		Records: records,
	}, nil
}

func decodeImportRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	req := templater.ImportRequest{
		UUID:     middleware.GetReqID(ctx),
		UserID:   userID(r),
		Shape:    chi.URLParam(r, "shape"),
		Sheets:   query["sheet"],
		Type:     query.Get("type"),
		Document: r.Body,
	}
	if v := query.Get("head_rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, badRequest{fmt.Errorf("head_rows %q is not a row count", v)}
		}
		req.HeadRows = n
	}
	return req, nil
}

func userID(r *http.Request) int {
	id, _ := strconv.Atoi(r.Header.Get("X-User-Id"))
	return id
}

func encodeDocument(_ context.Context, w http.ResponseWriter, res interface{}) error {
	doc := res.(templater.Response)
	for _, warning := range doc.Warnings {
		w.Header().Add(headerWarning, warning)
	}
	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Document)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(doc.Document)
	return err
}

type record struct {
	Sheet  string        `json:"sheet"`
	Row    int           `json:"row"`
	Values schema.Record `json:"values"`
}

type records struct {
	UUID     string   `json:"uuid"`
	Records  []record `json:"records"`
	Warnings []string `json:"warnings,omitempty"`
}

func encodeRecords(_ context.Context, w http.ResponseWriter, res interface{}) error {
	imported := res.(templater.ImportResponse)
	payload := records{
		UUID:     imported.UUID,
		Records:  make([]record, 0, len(imported.Records)),
		Warnings: imported.Warnings,
	}
	for _, rec := range imported.Records {
		payload.Records = append(payload.Records, record(rec))
	}
	body, err := response.Build(payload, nil)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(body)
	return err
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	body, _ := response.Build(nil, err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusOf(err))
	w.Write(body)
}

func statusOf(err error) int {
	var (
		bad badRequest
		e   *sheeterr.Error
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest
	case errors.As(err, &e) && e.Kind != sheeterr.Backend:
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
