package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(level LogLevel) (*RunLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func TestRunLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelWarn)

	l.Debug("debug msg")
	l.Info("info msg")
	l.Warn("warn msg")
	l.Error("error msg")

	out := buf.String()
	assert.NotContains(t, out, "debug msg")
	assert.NotContains(t, out, "info msg")
	assert.Contains(t, out, "warn msg")
	assert.Contains(t, out, "error msg")
}

func TestRunLogger_WithRunAttachesContext(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	l.WithRun("run-42", "picker").Info("run.start")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run.start", entry["msg"])
	assert.Equal(t, "run-42", entry["run_id"])
	assert.Equal(t, "picker", entry["agent"])
}

func TestRunLogger_WithAttrDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	child := l.WithAttr("component", "runner")
	child.Info("from child")
	l.Info("from parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "component")
	assert.NotContains(t, lines[1], "component")
}

func TestRunLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})
	l.Info("hello", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "msg=hello")
	assert.Contains(t, out, "key=value")
}

func TestRunLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelDebug)

	l.LogToolCall("lookup", 25*time.Millisecond, nil)
	l.LogToolCall("lookup", 5*time.Millisecond, errors.New("boom"))
	l.LogModelCall("gpt-4o-mini", 123, 900*time.Millisecond, nil)
	l.LogGuardrail("input", "no-secrets", true, "input mentions secrets")
	l.LogRunCompletion("picker", 3, time.Second, nil)

	out := buf.String()
	assert.Contains(t, out, "tool.call.completed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "model.call.completed")
	assert.Contains(t, out, "guardrail.tripwire")
	assert.Contains(t, out, "run.completed")
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	// Must be safe to call with arbitrary arguments.
	l.Debug("msg", "k", "v")
	l.Info("msg")
	l.Warn("msg", "odd")
	l.Error("msg", "k", 1)
}
