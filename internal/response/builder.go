package response

import (
	"encoding/json"
	"errors"

	"github.com/geoirb/sheetbind/internal/sheeterr"
)

type failure struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Sheet   string `json:"sheet,omitempty"`
	Cell    string `json:"cell,omitempty"`
	Field   string `json:"field,omitempty"`
}

type response struct {
	IsOk    bool        `json:"is_ok"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *failure    `json:"error,omitempty"`
}

// Build response to payload and error. Binding errors carry the location
// of the offending cell.
func Build(payload interface{}, err error) ([]byte, error) {
	response := response{
		IsOk:    err == nil,
		Payload: payload,
	}
	if err != nil {
		response.Error = failureOf(err)
	}
	return json.Marshal(response)
}

func failureOf(err error) *failure {
	f := &failure{Message: err.Error()}
	var e *sheeterr.Error
	if errors.As(err, &e) {
		f.Kind = e.Kind.String()
		f.Sheet = e.Sheet
		f.Cell = e.Cell()
		f.Field = e.Field
	}
	return f
}
