package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Stderr: &buf})

	Debug("debug message")
	Info("info message")
	Warn("warn message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug output should be suppressed by default")
	}
	if strings.Contains(out, "info message") {
		t.Error("info output should be suppressed by default")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn output should be emitted")
	}
}

func TestInitVerbose(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	Debug("debug message")

	if !strings.Contains(buf.String(), "debug message") {
		t.Error("debug output should be emitted in verbose mode")
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{JSONFormat: true, Stderr: &buf})

	Error("json message", "key", "value")

	out := buf.String()
	if !strings.Contains(out, `"msg":"json message"`) {
		t.Errorf("expected JSON output, got %q", out)
	}
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("captured")

	if !strings.Contains(buf.String(), "captured") {
		t.Error("SetOutput should capture debug output")
	}
}
