package templater

import (
	"context"
)

// Service of templater.
type Service interface {
	// FillIn fills the named template with the request payload.
	FillIn(ctx context.Context, req Request) (res Response, err error)
	// Export writes records of a named shape to a new document.
	Export(ctx context.Context, req ExportRequest) (res Response, err error)
	// Import reads the records of an uploaded document.
	Import(ctx context.Context, req ImportRequest) (res ImportResponse, err error)
}
