package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	tests := []struct {
		filename string
		expected string
		err      error
	}{
		{"invoice.xlsx", "xlsx", nil},
		{"dir/Report.XLSX", "xlsx", nil},
		{"macro.xlsm", "xlsx", nil},
		{"base.xltx", "xlsx", nil},
		{"archive.tar.gz", "", errTypeUnknown},
		{"README", "", errTypeNotDefined},
		{"trailing.", "", errTypeNotDefined},
	}
	for _, test := range tests {
		t.Run(test.filename, func(t *testing.T) {
			actual, err := p.Type(test.filename)
			assert.True(t, errors.Is(err, test.err), "%v", err)
			assert.Equal(t, test.expected, actual)
		})
	}
}
