// Package config loads spell tool settings from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".spell.yaml"
	// UserFile is looked up below the user's home directory.
	UserFile = ".spell/config.yaml"
)

// Config holds the settings shared by every spell command.
type Config struct {
	Pretty        bool   `yaml:"pretty"`
	MaxIterations int64  `yaml:"max_iterations"`
	Trace         bool   `yaml:"trace"`
	LogLevel      string `yaml:"log_level"`
	HistoryFile   string `yaml:"history_file"`

	// Path is the file the settings came from; empty for built-in defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	history := ".spell_history"
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".spell_history")
	}
	return &Config{
		Pretty:      true,
		LogLevel:    "error",
		HistoryFile: history,
	}
}

// Load reads settings with precedence project (<dir>/.spell.yaml) →
// user (~/.spell/config.yaml) → defaults. Only the first file found is
// used. A file that exists but does not parse is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

// LoadFile reads one YAML settings file. Fields the file leaves out keep
// their defaults; unknown fields are rejected.
func LoadFile(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	cfg.Path = abs

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	lvl, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelError
	}
	return lvl
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q (want debug, info, warn or error)", name)
}

// Encode writes the settings as YAML.
func (c *Config) Encode(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
