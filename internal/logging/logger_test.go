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

func TestJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", "json")
	l.Info("dropped")
	l.Warn("kept", "slug", "alice")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "alice", line["slug"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "debug", "text").Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestFromContext(t *testing.T) {
	base := slog.Default()
	scoped := base.With("request_id", "r1")
	assert.Same(t, base, FromContext(context.Background(), base))
	assert.Same(t, scoped, FromContext(WithLogger(context.Background(), scoped), base))
}
