package templater

import (
	"io"

	"github.com/geoirb/sheetbind/internal/reader"
	"github.com/geoirb/sheetbind/internal/schema"
)

// Request info for fill in template.
type Request struct {
	UserID   int
	UUID     string
	Template string
	Payload  interface{}
}

// ExportRequest info for writing records.
type ExportRequest struct {
	UserID int
	UUID   string
	// Shape names a record shape in the schema directory.
	Shape string
	Sheet string
	// Type of the document, xlsx when empty.
	Type    string
	Records []schema.Record
}

// Response with the built document.
type Response struct {
	UUID     string
	UserID   int
	Document []byte
	Warnings []string
	Error    string
}

// ImportRequest info for reading an uploaded document.
type ImportRequest struct {
	UserID int
	UUID   string
	// Shape names a record shape in the schema directory.
	Shape  string
	Sheets []string
	// HeadRows overrides the configured header rows when positive.
	HeadRows int
	// Type of the document, xlsx when empty.
	Type     string
	Document io.Reader
}

// ImportResponse with the read records.
type ImportResponse struct {
	UUID     string
	UserID   int
	Records  []reader.Record
	Warnings []string
}
