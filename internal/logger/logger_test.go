package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests mutate package-level logger state, so they run sequentially
// (no t.Parallel) and each resets the format/level/output it touched.

func TestSetLevel_FiltersBelowThreshold(t *testing.T) {
	defer func() { SetLevel("INFO") }()

	var buf bytes.Buffer
	mu.Lock()
	output = &buf
	mu.Unlock()
	SetFormat("text")
	SetLevel("WARN")

	Info("should not appear")
	Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestSetLevel_InvalidValueIsIgnored(t *testing.T) {
	defer func() { SetLevel("INFO") }()

	SetLevel("INFO")
	SetLevel("NOT_A_LEVEL")
	assert.Equal(t, int32(LevelInfo), currentLevel.Load())
}

func TestSetFormat_JSON(t *testing.T) {
	defer func() { SetFormat("text") }()

	var buf bytes.Buffer
	mu.Lock()
	output = &buf
	mu.Unlock()
	SetLevel("DEBUG")
	SetFormat("json")

	Info("hello", "key", "value")

	var decoded map[string]any
	line := strings.TrimSpace(buf.String())
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "hello", decoded["msg"])
	assert.Equal(t, "value", decoded["key"])
}

func TestSetFormat_InvalidValueIsIgnored(t *testing.T) {
	defer func() { SetFormat("text") }()

	SetFormat("text")
	SetFormat("not-a-format")
	format, _ := currentFormat.Load().(string)
	assert.Equal(t, "text", format)
}

func TestInit_OpensStdoutAndStderr(t *testing.T) {
	defer func() {
		mu.Lock()
		output = nil
		mu.Unlock()
		_ = Init(Config{Level: "INFO", Format: "text", Output: "stderr"})
	}()

	require.NoError(t, Init(Config{Level: "DEBUG", Format: "json", Output: "stdout"}))
	assert.Equal(t, int32(LevelDebug), currentLevel.Load())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
}
