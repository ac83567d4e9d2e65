package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "clinic-billing", "info", "production")

	logger.Debug("hidden")
	logger.Info("payment applied", "document_id", "doc-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "clinic-billing", line["service"])
	assert.Equal(t, "payment applied", line["msg"])
	assert.Equal(t, "doc-1", line["document_id"])
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "clinic-billing", "debug", "production")
	ctx := WithLogger(context.Background(), base)

	ctx = WithAttrs(ctx, "actor", "nurse-7")
	FromContext(ctx).Info("line item recorded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "nurse-7", line["actor"])
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
