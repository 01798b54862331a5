package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/go-kit/kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "json", "warn")
	require.NoError(t, err)

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "warn", record["level"])
	assert.Contains(t, record, "ts")
}

func TestNewLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "logfmt", "debug")
	require.NoError(t, err)
	level.Debug(logger).Log("msg", "x")
	assert.Contains(t, buf.String(), "level=debug")
}

func TestNewRejectsUnknown(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)
	_, err = New(&bytes.Buffer{}, "json", "loud")
	assert.Error(t, err)
}
