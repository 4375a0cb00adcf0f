// Package testutil provides shared test helpers for spell Go tests.
package testutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the scenario files.
const ScenariosDir = "testdata/scenarios"

// Scenario is one end-to-end program with its expected outcome.
type Scenario struct {
	Name string `yaml:"name"`
	// Cmd is "run" (the default) or "check".
	Cmd           string `yaml:"cmd"`
	Source        string `yaml:"source"`
	MaxIterations int64  `yaml:"max_iterations"`

	Stdout         *string  `yaml:"stdout"`
	Stderr         *string  `yaml:"stderr"`
	StderrContains []string `yaml:"stderr_contains"`
	ErrorCode      string   `yaml:"error_code"`
	ExitCode       int      `yaml:"exit_code"`
}

// ScenarioFile is the document layout of a scenario file.
type ScenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios reads every scenario of one YAML file. Unknown fields and
// duplicate names are rejected.
func LoadScenarios(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc ScenarioFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	seen := make(map[string]bool, len(doc.Scenarios))
	for i := range doc.Scenarios {
		s := &doc.Scenarios[i]
		if s.Name == "" {
			return nil, fmt.Errorf("%s: scenario %d has no name", path, i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("%s: duplicate scenario %q", path, s.Name)
		}
		seen[s.Name] = true
		switch s.Cmd {
		case "":
			s.Cmd = "run"
		case "run", "check":
		default:
			return nil, fmt.Errorf("%s: scenario %q has unknown cmd %q", path, s.Name, s.Cmd)
		}
	}
	return doc.Scenarios, nil
}

// ListScenarioFiles returns the YAML scenario files under root, sorted.
func ListScenarioFiles(root string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(root, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
