package mq

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/geoirb/sheetbind/internal/kafka"
	"github.com/geoirb/sheetbind/internal/templater"
)

type fillInServe struct {
	svc       templater.Service
	transport *FillInTransport
	publish   kafka.Publish
	logger    log.Logger
}

func (s *fillInServe) Handle(ctx context.Context, message []byte) {
	var res templater.Response
	request, err := s.transport.DecodeRequest(message)
	if err == nil {
		res, err = s.svc.FillIn(ctx, request)
	}

	if perr := s.publish(s.transport.EncodeResponse(res, err)); perr != nil {
		level.Error(s.logger).Log("msg", "publish fill in response", "uuid", res.UUID, "err", perr)
	}
}

// NewFillInHandler ...
func NewFillInHandler(
	svc templater.Service,
	transport *FillInTransport,
	publish kafka.Publish,
	logger log.Logger,
) kafka.Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &fillInServe{
		svc:       svc,
		transport: transport,
		publish:   publish,
		logger:    logger,
	}

	return s.Handle
}

type exportServe struct {
	svc       templater.Service
	transport *ExportTransport
	publish   kafka.Publish
	logger    log.Logger
}

func (s *exportServe) Handle(ctx context.Context, message []byte) {
	var res templater.Response
	request, err := s.transport.DecodeRequest(message)
	if err == nil {
		res, err = s.svc.Export(ctx, request)
	}

	if perr := s.publish(s.transport.EncodeResponse(res, err)); perr != nil {
		level.Error(s.logger).Log("msg", "publish export response", "uuid", res.UUID, "err", perr)
	}
}

// NewExportHandler ...
func NewExportHandler(
	svc templater.Service,
	transport *ExportTransport,
	publish kafka.Publish,
	logger log.Logger,
) kafka.Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &exportServe{
		svc:       svc,
		transport: transport,
		publish:   publish,
		logger:    logger,
	}

	return s.Handle
}

type importServe struct {
	svc       templater.Service
	transport *ImportTransport
	publish   kafka.Publish
	logger    log.Logger
}

func (s *importServe) Handle(ctx context.Context, message []byte) {
	var res templater.ImportResponse
	request, err := s.transport.DecodeRequest(message)
	if err == nil {
		res, err = s.svc.Import(ctx, request)
	}

	if perr := s.publish(s.transport.EncodeResponse(res, err)); perr != nil {
		level.Error(s.logger).Log("msg", "publish import response", "uuid", res.UUID, "err", perr)
	}
}

// NewImportHandler ...
func NewImportHandler(
	svc templater.Service,
	transport *ImportTransport,
	publish kafka.Publish,
	logger log.Logger,
) kafka.Handler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &importServe{
		svc:       svc,
		transport: transport,
		publish:   publish,
		logger:    logger,
	}

	return s.Handle
}
