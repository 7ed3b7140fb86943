package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pipewise/exportd/internal/config"
)

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exportd.log")
	l, err := New(config.Logging{Format: "json", Output: config.OutputFile, File: path, Level: "info"})
	if err != nil {
		t.Fatal(err)
	}

	l.Info().Str("k", "v").Msg("hello")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	for _, want := range []string{`"k":"v"`, `"message":"hello"`, `"component":"exportd"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %s", line, want)
		}
	}
}

func TestNew_LevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exportd.log")
	l, err := New(config.Logging{Format: "json", Output: config.OutputFile, File: path, Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}

	l.Info().Msg("quiet")
	l.Warn().Msg("loud")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "quiet") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(string(data), "loud") {
		t.Error("warn line should pass the filter")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.Logging{Format: "json", Output: "stdout", Level: "shouty"})
	if err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error().Msg("discarded")
	if err := l.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}
}
