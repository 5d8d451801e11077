package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerRenamesCoreKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf))
	logger.Warn("escrow released", "program", "escrow")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "escrow released", line["message"])
	require.Equal(t, "WARN", line["severity"])
	require.Contains(t, line, "timestamp")
	require.Equal(t, "escrow", line["program"])
}

func TestSetupWithFileWritesJSON(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	path := filepath.Join(t.TempDir(), "ledger.log")
	logger, closer := SetupWithFile("escrowctl", "test", FileOptions{Path: path})
	logger.Info("started")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &line))
	require.Equal(t, "escrowctl", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "started", line["message"])
}

func TestMaskFieldRedactsUnlistedKeys(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("dsn", "file:secret.db").Value.String())
	require.Equal(t, "escrow", MaskField("Program", "escrow").Value.String())
	require.Equal(t, "", MaskField("dsn", "").Value.String())
	require.Contains(t, RedactionAllowlist(), "invocation")
}
