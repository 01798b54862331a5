package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	opts, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100, opts.BatchSize)
	assert.Equal(t, 1, opts.HeaderRows)
	assert.Equal(t, "json", opts.LogFormat)

	cfg, err := opts.Registry()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 1e-6, cfg.Tolerance)
	assert.True(t, opts.Schema().AutoMergeHead)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SHEETBIND_BATCH_SIZE", "7")
	t.Setenv("SHEETBIND_HEADER_ROWS", "2")
	t.Setenv("SHEETBIND_LOCALE", "de-DE")
	t.Setenv("SHEETBIND_SUBSTITUTE_ON_ERROR", "true")
	t.Setenv("SHEETBIND_TIME_ZONE", "Europe/Berlin")

	opts, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, opts.Writer().BatchSize)
	assert.Equal(t, 2, opts.Reader().HeadRows)
	assert.True(t, opts.Reader().SubstituteOnError)

	cfg, err := opts.Registry()
	require.NoError(t, err)
	assert.Equal(t, "de-DE", cfg.Locale)
	assert.Equal(t, "Europe/Berlin", cfg.Location.String())
}

func TestBadTimeZone(t *testing.T) {
	_, err := Options{TimeZone: "Nowhere/Land"}.Registry()
	assert.Error(t, err)
}
