// Package testutil provides shared test helpers for ct Go tests.
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

// Scenario is one end-to-end program run loaded from a YAML file.
type Scenario struct {
	Name   string          `yaml:"name"`
	Source string          `yaml:"source"`
	Stdin  string          `yaml:"stdin,omitempty"`
	Policy *ScenarioPolicy `yaml:"policy,omitempty"`
	Limits *ScenarioLimits `yaml:"limits,omitempty"`
	Expect ExpectedResult  `yaml:"expect"`
}

// ScenarioPolicy defines capability permissions for a scenario.
// Without it the runtime default applies.
type ScenarioPolicy struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny,omitempty"`
}

// ScenarioLimits overrides the evaluator limits.
type ScenarioLimits struct {
	MaxDepth      int   `yaml:"max_depth"`
	MaxIterations int64 `yaml:"max_iterations"`
}

// ExpectedResult describes the expected outcome of running a scenario.
// Value is the formatted top-level return value; Code is the diagnostic
// code of a fatal error, empty when the run must succeed.
type ExpectedResult struct {
	Stdout         *string `yaml:"stdout,omitempty"`
	StdoutContains string  `yaml:"stdout_contains,omitempty"`
	Value          *string `yaml:"value,omitempty"`
	Code           string  `yaml:"code,omitempty"`
	Message        string  `yaml:"message,omitempty"`
}

// LoadScenarios reads every scenario document in a YAML file. A file may
// hold several documents separated by `---`.
func LoadScenarios(path string) ([]*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var out []*Scenario
	for {
		var s Scenario
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if s.Name == "" {
			return nil, fmt.Errorf("%s: scenario #%d has no name", path, len(out)+1)
		}
		out = append(out, &s)
	}
	return out, nil
}

// ListScenarioFiles returns the YAML files under root in lexical order.
func ListScenarioFiles(root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
