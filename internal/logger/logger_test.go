package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestColorHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewColorTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	l.Debug("dbg")
	l.Info("inf")
	l.Warn("wrn")
	l.Error("err")

	out := buf.String()
	for _, code := range []string{"\033[36m", "\033[32m", "\033[33m", "\033[31m"} {
		if !strings.Contains(out, code) {
			t.Errorf("missing color code %q in output", code)
		}
	}
}

func TestNewWithRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procward.log")
	l := New(Config{Level: "debug", File: path})
	l.Info("hello", "k", "v")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("log file missing message: %s", b)
	}
}

func TestNewDefaultsToStderrOnly(t *testing.T) {
	// Just ensure construction does not blow up without a file.
	New(Config{}).Debug("suppressed at info level")
}
