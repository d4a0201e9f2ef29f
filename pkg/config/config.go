// Package config loads ct configuration files.
//
// Lookup precedence: an explicit path, then ./.ct.yaml, then
// ~/.ct/config.yaml, then built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/diagnostics"
	"github.com/thomasrohde/ct/pkg/evaluator"
)

const (
	// ProjectFile is looked up in the working directory.
	ProjectFile = ".ct.yaml"
	// UserFile is looked up relative to the home directory.
	UserFile = ".ct/config.yaml"
)

// Config is the resolved configuration.
type Config struct {
	// Path is the file the configuration came from, empty for defaults.
	Path string

	MaxDepth      int
	MaxIterations int64
	LogLevel      slog.Level
	Allow         []string
	Deny          []string
}

// file mirrors the YAML layout. Pointers distinguish unset from zero.
type file struct {
	MaxDepth      *int     `yaml:"max_depth"`
	MaxIterations *int64   `yaml:"max_iterations"`
	LogLevel      string   `yaml:"log_level"`
	Allow         []string `yaml:"allow"`
	Deny          []string `yaml:"deny"`
}

// Error reports an unusable configuration file.
type Error struct {
	Path   string
	Issues []string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config %s:", e.Path)
	if len(e.Issues) == 1 {
		b.WriteString(" ")
		b.WriteString(e.Issues[0])
		return b.String()
	}
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Diagnostic converts the error to a diagnostic.
func (e *Error) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EConfig, e.Error(), nil, "")
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		MaxDepth: evaluator.DefaultMaxDepth,
		LogLevel: slog.LevelWarn,
		Allow:    []string{capabilities.FSRead},
	}
}

// Load resolves the configuration. A non-empty explicit path must exist;
// the implicit project and user files are optional.
func Load(explicit, projectDir string) (*Config, error) {
	if explicit != "" {
		return LoadFile(explicit)
	}

	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserFile))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return LoadFile(path)
	}
	return Default(), nil
}

// LoadFile reads one configuration file. Unset fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Path: path, Issues: []string{err.Error()}}
	}
	defer f.Close()
	return decode(f, path)
}

// Parse decodes configuration from r. name is used in error messages.
func Parse(r io.Reader, name string) (*Config, error) {
	return decode(r, name)
}

func decode(r io.Reader, path string) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw file
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Path: path, Issues: []string{err.Error()}}
	}

	cfg := Default()
	cfg.Path = path
	var issues []string

	if raw.MaxDepth != nil {
		if *raw.MaxDepth < 0 {
			issues = append(issues, fmt.Sprintf("max_depth must be >= 0, got %d", *raw.MaxDepth))
		}
		cfg.MaxDepth = *raw.MaxDepth
	}
	if raw.MaxIterations != nil {
		if *raw.MaxIterations < 0 {
			issues = append(issues, fmt.Sprintf("max_iterations must be >= 0, got %d", *raw.MaxIterations))
		}
		cfg.MaxIterations = *raw.MaxIterations
	}
	if raw.LogLevel != "" {
		lvl, err := ParseLevel(raw.LogLevel)
		if err != nil {
			issues = append(issues, err.Error())
		}
		cfg.LogLevel = lvl
	}
	if raw.Allow != nil {
		cfg.Allow = raw.Allow
	}
	cfg.Deny = raw.Deny
	if _, err := capabilities.New(cfg.Allow, cfg.Deny); err != nil {
		issues = append(issues, err.Error())
	}

	if len(issues) > 0 {
		return nil, &Error{Path: path, Issues: issues}
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelWarn, fmt.Errorf("unknown log_level %q (want debug, info, warn or error)", name)
	}
	return lvl, nil
}

// Limits returns the evaluator resource ceilings.
func (c *Config) Limits() evaluator.Limits {
	return evaluator.Limits{MaxDepth: c.MaxDepth, MaxIterations: c.MaxIterations}
}

// Policy returns the capability policy. The lists were validated on load.
func (c *Config) Policy() *capabilities.Policy {
	p, err := capabilities.New(c.Allow, c.Deny)
	if err != nil {
		return capabilities.DenyAll()
	}
	return p
}
