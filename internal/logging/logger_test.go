package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWriterAndLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Options{Writer: &buf, Level: "warn"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer Close()

	Info("hidden")
	Warn("shown", "rows", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "rows=3") {
		t.Errorf("expected warning with key/value, got %q", out)
	}
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "moyu.log")
	if err := Init(Options{File: path, Level: "debug"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	WithPrefix("source").Debug("opened")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "source") || !strings.Contains(string(data), "opened") {
		t.Errorf("unexpected log file content: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"", "debug", "INFO", "warn", "error"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Init(Options{Level: "loud"}); err == nil {
		t.Error("Init should reject unknown level")
	}
}

func TestWithPrefixBeforeInit(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	if WithPrefix("x") == nil {
		t.Error("WithPrefix should never return nil")
	}
	Info("no logger, no panic")
}
