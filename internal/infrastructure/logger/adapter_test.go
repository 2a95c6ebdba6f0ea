package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerAdapter_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()

	log, err := NewLoggerAdapter(Config{Dir: dir, Name: "serve: chat", Level: "debug"})
	require.NoError(t, err)

	log.WithField("tool", "code_review").Info("Tool invoked", "chars", 12)
	log.Debug("details")
	require.NoError(t, log.Close())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), "_serve__chat.log"))

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Tool invoked", entry["message"])
	assert.Equal(t, "code_review", entry["tool"])
	assert.EqualValues(t, 12, entry["chars"])
	assert.Equal(t, "info", entry["level"])
}

func TestNewLoggerAdapter_InvalidLevel(t *testing.T) {
	_, err := NewLoggerAdapter(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestLoggerAdapter_WithFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.WithFields(map[string]any{"invocation": "abc", "tool": "scan_security"}).Warn("slow")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", fields["invocation"])
	assert.Equal(t, "scan_security", fields["tool"])
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "bridge", sanitize("///"))
	assert.Equal(t, "mcp_stdio", sanitize("mcp stdio"))
	assert.Len(t, sanitize(strings.Repeat("a", 100)), 60)
}
