package mq

import (
	"bytes"
	"encoding/json"

	"github.com/geoirb/sheetbind/internal/templater"
)

type builder func(payload interface{}, err error) ([]byte, error)

// FillInTransport ...
type FillInTransport struct {
	builder builder
}

// NewFillInTransport ...
func NewFillInTransport(
	builder builder,
) *FillInTransport {
	return &FillInTransport{
		builder: builder,
	}
}

// DecodeRequest ...
func (t *FillInTransport) DecodeRequest(message []byte) (templater.Request, error) {
	var req request
	err := json.Unmarshal(message, &req)
	return templater.Request(req), err
}

// EncodeResponse ...
func (t *FillInTransport) EncodeResponse(res templater.Response, err error) (message []byte) {
	return encodeResponse(t.builder, res, err)
}

// ExportTransport ...
type ExportTransport struct {
	builder builder
}

// NewExportTransport ...
func NewExportTransport(
	builder builder,
) *ExportTransport {
	return &ExportTransport{
		builder: builder,
	}
}

// DecodeRequest ...
func (t *ExportTransport) DecodeRequest(message []byte) (templater.ExportRequest, error) {
	var req exportRequest
	err := json.Unmarshal(message, &req)
	return templater.ExportRequest(req), err
}

// EncodeResponse ...
func (t *ExportTransport) EncodeResponse(res templater.Response, err error) (message []byte) {
	return encodeResponse(t.builder, res, err)
}

// ImportTransport ...
type ImportTransport struct {
	builder builder
}

// NewImportTransport ...
func NewImportTransport(
	builder builder,
) *ImportTransport {
	return &ImportTransport{
		builder: builder,
	}
}

// DecodeRequest ...
func (t *ImportTransport) DecodeRequest(message []byte) (templater.ImportRequest, error) {
	var req importRequest
	err := json.Unmarshal(message, &req)
	return templater.ImportRequest{
		UserID:   req.UserID,
		UUID:     req.UUID,
		Shape:    req.Shape,
		Sheets:   req.Sheets,
		HeadRows: req.HeadRows,
		Type:     req.Type,
		Document: bytes.NewReader(req.Document),
	}, err
}

// EncodeResponse ...
func (t *ImportTransport) EncodeResponse(res templater.ImportResponse, err error) (message []byte) {
	payload := importResponse{
		UUID:     res.UUID,
		UserID:   res.UserID,
		Warnings: res.Warnings,
	}
	for _, rec := range res.Records {
		payload.Records = append(payload.Records, record(rec))
	}
	if err != nil {
		payload.Message = err.Error()
	}
	message, _ = t.builder(payload, err)
	return
}

func encodeResponse(build builder, res templater.Response, err error) (message []byte) {
	payload := response{
		UUID:     res.UUID,
		UserID:   res.UserID,
		Document: res.Document,
		Warnings: res.Warnings,
	}
	if err != nil {
		payload.Message = err.Error()
	}
	message, _ = build(payload, err)
	return
}
