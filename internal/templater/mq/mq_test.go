package mq_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/response"
	"github.com/geoirb/sheetbind/internal/schema"
	"github.com/geoirb/sheetbind/internal/templater"
	"github.com/geoirb/sheetbind/internal/templater/mq"
)

type service struct {
	fillIn templater.Request
	export templater.ExportRequest
	load   templater.ImportRequest
	body   []byte
	err    error
}

func (s *service) FillIn(_ context.Context, req templater.Request) (templater.Response, error) {
	s.fillIn = req
	return templater.Response{UUID: req.UUID, UserID: req.UserID, Document: []byte("doc"), Warnings: []string{"w"}}, s.err
}

func (s *service) Export(_ context.Context, req templater.ExportRequest) (templater.Response, error) {
	s.export = req
	return templater.Response{UUID: req.UUID, UserID: req.UserID}, s.err
}

func (s *service) Import(_ context.Context, req templater.ImportRequest) (templater.ImportResponse, error) {
	s.load = req
	s.body, _ = io.ReadAll(req.Document)
	return templater.ImportResponse{
		UUID:    req.UUID,
		UserID:  req.UserID,
		Records: []reader.Record{{Sheet: "Items", Row: 2, Values: schema.Record{"name": "A"}}},
	}, s.err
}

type published struct {
	IsOk    bool `json:"is_ok"`
	Payload struct {
		UUID     string   `json:"uuid"`
		UserID   int      `json:"user_id"`
		Document []byte   `json:"document"`
		Warnings []string `json:"warnings"`
		Message  string   `json:"message"`
	} `json:"payload"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func capture(messages *[]published) func([]byte) error {
	return func(message []byte) error {
		var p published
		if err := json.Unmarshal(message, &p); err != nil {
			return err
		}
		*messages = append(*messages, p)
		return nil
	}
}

func TestFillInHandler(t *testing.T) {
	svc := &service{}
	var messages []published
	handle := mq.NewFillInHandler(svc, mq.NewFillInTransport(response.Build), capture(&messages), nil)

	handle(context.Background(), []byte(`{"uuid":"u1","user_id":3,"template":"report.xlsx","payload":{"title":"x"}}`))

	assert.Equal(t, templater.Request{
		UserID:   3,
		UUID:     "u1",
		Template: "report.xlsx",
		Payload:  map[string]interface{}{"title": "x"},
	}, svc.fillIn)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsOk)
	assert.Equal(t, "u1", messages[0].Payload.UUID)
	assert.Equal(t, 3, messages[0].Payload.UserID)
	assert.Equal(t, []byte("doc"), messages[0].Payload.Document)
	assert.Equal(t, []string{"w"}, messages[0].Payload.Warnings)
}

func TestFillInHandlerBadMessage(t *testing.T) {
	svc := &service{}
	var messages []published
	handle := mq.NewFillInHandler(svc, mq.NewFillInTransport(response.Build), capture(&messages), nil)

	handle(context.Background(), []byte(`{`))

	assert.Empty(t, svc.fillIn.Template)
	require.Len(t, messages, 1)
	assert.False(t, messages[0].IsOk)
	require.NotNil(t, messages[0].Error)
}

func TestExportHandler(t *testing.T) {
	svc := &service{err: errors.New("boom")}
	var messages []published
	handle := mq.NewExportHandler(svc, mq.NewExportTransport(response.Build), capture(&messages), nil)

	handle(context.Background(), []byte(`{"uuid":"u2","shape":"items","records":[{"name":"A"}]}`))

	assert.Equal(t, "items", svc.export.Shape)
	require.Len(t, svc.export.Records, 1)
	assert.Equal(t, "A", svc.export.Records[0]["name"])
	require.Len(t, messages, 1)
	assert.False(t, messages[0].IsOk)
	assert.Equal(t, "u2", messages[0].Payload.UUID)
	assert.Equal(t, "boom", messages[0].Payload.Message)
	assert.Equal(t, "boom", messages[0].Error.Message)
}

type importPublished struct {
	IsOk    bool `json:"is_ok"`
	Payload struct {
		UUID    string `json:"uuid"`
		Records []struct {
			Sheet  string                 `json:"sheet"`
			Row    int                    `json:"row"`
			Values map[string]interface{} `json:"values"`
		} `json:"records"`
	} `json:"payload"`
}

func TestImportHandler(t *testing.T) {
	svc := &service{}
	var messages []importPublished
	handle := mq.NewImportHandler(svc, mq.NewImportTransport(response.Build), func(message []byte) error {
		var p importPublished
		if err := json.Unmarshal(message, &p); err != nil {
			return err
		}
		messages = append(messages, p)
		return nil
	}, nil)

	handle(context.Background(), []byte(`{"uuid":"u3","shape":"items","sheets":["Items"],"head_rows":2,"document":"ZG9j"}`))

	assert.Equal(t, "items", svc.load.Shape)
	assert.Equal(t, []string{"Items"}, svc.load.Sheets)
	assert.Equal(t, 2, svc.load.HeadRows)
	assert.Equal(t, []byte("doc"), svc.body)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].IsOk)
	assert.Equal(t, "u3", messages[0].Payload.UUID)
	require.Len(t, messages[0].Payload.Records, 1)
	assert.Equal(t, "Items", messages[0].Payload.Records[0].Sheet)
	assert.Equal(t, 2, messages[0].Payload.Records[0].Row)
	assert.Equal(t, "A", messages[0].Payload.Records[0].Values["name"])
}
