package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spelllang/spell/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// isolate points HOME at an empty directory and returns it.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefaults(t *testing.T) {
	home := isolate(t)
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Pretty || cfg.Trace || cfg.MaxIterations != 0 || cfg.LogLevel != "error" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.HistoryFile != filepath.Join(home, ".spell_history") {
		t.Errorf("got history file %q", cfg.HistoryFile)
	}
	if cfg.Path != "" {
		t.Errorf("defaults should have no path, got %q", cfg.Path)
	}
}

func TestProjectFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "pretty: false\nmax_iterations: 500\ntrace: true\nlog_level: debug\n")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pretty || !cfg.Trace || cfg.MaxIterations != 500 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("got level %v", cfg.Level())
	}
	if !strings.HasSuffix(cfg.Path, config.ProjectFile) {
		t.Errorf("got path %q", cfg.Path)
	}
}

func TestProjectOverridesUser(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, config.UserFile), "max_iterations: 7\n")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "max_iterations: 9\n")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxIterations != 9 {
		t.Errorf("got %d, want project value 9", cfg.MaxIterations)
	}
}

func TestUserFileFallback(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, config.UserFile), "history_file: ~/.cache/spell_history\n")

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HistoryFile != filepath.Join(home, ".cache", "spell_history") {
		t.Errorf("got history file %q", cfg.HistoryFile)
	}
	if !cfg.Pretty {
		t.Error("fields left out of the file keep their defaults")
	}
}

func TestEmptyFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), "# nothing yet\n")
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Pretty || cfg.Path == "" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "pretty: [", "config: parse"},
		{"unknown field", "colour: blue\n", "field colour not found"},
		{"bad level", "log_level: loud\n", "unknown log_level"},
		{"negative budget", "max_iterations: -1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, config.ProjectFile), tt.content)
			_, err := config.Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelError,
	}
	for name, want := range tests {
		got, err := config.ParseLevel(name)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	isolate(t)
	cfg := config.Default()
	cfg.MaxIterations = 42
	cfg.LogLevel = "info"

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "path") {
		t.Errorf("Path must not be encoded:\n%s", buf.String())
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.ProjectFile), buf.String())
	back, err := config.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if back.MaxIterations != 42 || back.LogLevel != "info" || back.HistoryFile != cfg.HistoryFile {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
