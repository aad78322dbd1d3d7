package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"WARN":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"noisy": logrus.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfigure_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	Configure(Options{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})
	defer Configure(Options{})

	ForSession("abc").Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"session_id":"abc"`) {
		t.Errorf("Expected session_id in log file, got %s", data)
	}
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", Logger.GetLevel())
	}
}

func TestConfigure_Text(t *testing.T) {
	Configure(Options{Format: "text"})
	defer Configure(Options{})

	if _, ok := Logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Expected text formatter, got %T", Logger.Formatter)
	}
}
