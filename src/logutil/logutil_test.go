package logutil

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupWritesToFileAndRoutesStdlibLog(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	logger := Setup(Options{File: true, Dir: dir, Level: slog.LevelInfo})
	logger.Info("engine started", "generation", 1)
	log.Printf("legacy line")
	logger.Debug("hidden")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "engine started") || !strings.Contains(out, "generation=1") {
		t.Errorf("missing structured line in %q", out)
	}
	if !strings.Contains(out, "legacy line") {
		t.Errorf("standard log output not routed: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
}

func TestRotateIfNeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), LogFileName)
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	rotateIfNeeded(path, maxSizeBytes)

	if _, err := os.Stat(archiveName(path, 1)); err != nil {
		t.Errorf("expected %s after rotation: %v", archiveName(path, 1), err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected base file to be moved, stat err=%v", err)
	}
}
