package httpapi

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/geoirb/sheetbind/internal/templater"
)

func makeFillInEndpoint(svc templater.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.FillIn(ctx, request.(templater.Request))
	}
}

func makeExportEndpoint(svc templater.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.Export(ctx, request.(templater.ExportRequest))
	}
}

func makeImportEndpoint(svc templater.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.Import(ctx, request.(templater.ImportRequest))
	}
}
