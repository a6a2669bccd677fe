package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewWithWriterRespectsLevel(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	log.SetLevel(log.WarnLevel)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "ipc")
	l.Debug("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line logged at warn level:\n%s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "ipc") {
		t.Errorf("expected prefixed warning, got:\n%s", out)
	}
}
