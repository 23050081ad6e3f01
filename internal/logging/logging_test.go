package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
	require.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWithWriterJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := NewWithWriter(Config{Service: "account", Version: "test", Env: "production", Level: "info"}, &buf)
	logger.Debug("hidden")
	logger.Info("visible", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "visible", entry["msg"])
	require.Equal(t, "account", entry["service"])
	require.Equal(t, "v", entry["k"])
	require.Same(t, logger, slog.Default())
}

func TestNewWithWriterText(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	NewWithWriter(Config{Service: "auth", Format: "text"}, &buf).Info("hello")
	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "service=auth")
}

func TestContextLogger(t *testing.T) {
	require.Same(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := WithRequestID(WithContext(context.Background(), base), "01HREQ")
	FromContext(ctx).Info("scoped")

	require.Contains(t, buf.String(), `"req_id":"01HREQ"`)
	require.Equal(t, "01HREQ", RequestID(ctx))
	require.Empty(t, RequestID(context.Background()))
}
