// Package config loads and validates ptxlink configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gpiler/ptxlink/internal/link"
	"github.com/gpiler/ptxlink/internal/types"
)

// Default module paths.
const (
	DefaultRuntimePath  = "example1.ptx"
	DefaultCompiledPath = "input.ptx"
)

// Config holds all ptxlink configuration.
type Config struct {
	// Input modules
	RuntimePath  string `yaml:"runtime_path"`
	CompiledPath string `yaml:"compiled_path"`

	// Splice rules
	FunctionMarker string           `yaml:"function_marker"`
	VisibleMarker  string           `yaml:"visible_marker"`
	RewriteFrom    string           `yaml:"rewrite_from"`
	RewriteTo      string           `yaml:"rewrite_to"`
	BodyEnd        link.BodyEnd     `yaml:"body_end"`
	Match          link.MatchPolicy `yaml:"match"`

	// Lenient degrades unreadable modules to empty ones instead of failing.
	Lenient bool `yaml:"lenient"`

	// SearchPaths are directories searched for relative module paths,
	// after the working directory.
	SearchPaths []string `yaml:"search_paths,omitempty"`

	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// DiagnosticsConfig configures diagnostic filtering.
type DiagnosticsConfig struct {
	// FailAt is the severity name at or above which a link fails
	// (fatal, severe, error, minor, style, warning, info).
	FailAt string   `yaml:"fail_at"`
	Ignore []string `yaml:"ignore,omitempty"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	rules := link.DefaultRules()
	return &Config{
		RuntimePath:    DefaultRuntimePath,
		CompiledPath:   DefaultCompiledPath,
		FunctionMarker: rules.FunctionMarker,
		VisibleMarker:  rules.VisibleMarker,
		RewriteFrom:    rules.RewriteFrom,
		RewriteTo:      rules.RewriteTo,
		BodyEnd:        rules.BodyEnd,
		Match:          rules.Match,
		Diagnostics: DiagnosticsConfig{
			FailAt: types.DefaultConfig().FailAt.String(),
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal returns the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("PTXLINK_RUNTIME"); p != "" {
		c.RuntimePath = p
	}
	if p := os.Getenv("PTXLINK_COMPILED"); p != "" {
		c.CompiledPath = p
	}
}

// Rules returns the splice rules of the configuration.
func (c *Config) Rules() link.Rules {
	return link.Rules{
		FunctionMarker: c.FunctionMarker,
		VisibleMarker:  c.VisibleMarker,
		RewriteFrom:    c.RewriteFrom,
		RewriteTo:      c.RewriteTo,
		BodyEnd:        c.BodyEnd,
		Match:          c.Match,
	}
}

// DiagnosticConfig returns the diagnostic filter of the configuration.
// Validate must have succeeded.
func (c *Config) DiagnosticConfig() types.DiagnosticConfig {
	dc := types.DefaultConfig()
	if sev, ok := types.ParseSeverity(c.Diagnostics.FailAt); ok {
		dc.FailAt = sev
	}
	dc.Ignore = c.Diagnostics.Ignore
	return dc
}

// ValidationError lists every invalid field of a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks every field and returns a *ValidationError listing all
// problems, or nil.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.RuntimePath == "" {
		add("runtime_path is empty")
	}
	if c.CompiledPath == "" {
		add("compiled_path is empty")
	}
	if c.FunctionMarker == "" {
		add("function_marker is empty")
	}
	if c.VisibleMarker == "" {
		add("visible_marker is empty")
	}
	if c.RewriteFrom == "" {
		add("rewrite_from is empty")
	}
	if c.RewriteTo == "" {
		add("rewrite_to is empty")
	} else if strings.ContainsAny(c.RewriteTo, " \t,") {
		add("rewrite_to %q contains whitespace or a comma", c.RewriteTo)
	}
	if err := c.BodyEnd.Validate(); err != nil {
		add("body_end: %v", err)
	}
	if err := c.Match.Validate(); err != nil {
		add("match: %v", err)
	} else if err := c.Match.ValidateSymbol(c.RewriteFrom); err != nil {
		add("rewrite_from: %v", err)
	}
	if _, ok := types.ParseSeverity(c.Diagnostics.FailAt); !ok {
		add("diagnostics.fail_at: unknown severity %q", c.Diagnostics.FailAt)
	}
	for _, pattern := range c.Diagnostics.Ignore {
		if !types.MatchesKnownCode(pattern) {
			add("diagnostics.ignore: %q matches no diagnostic code", pattern)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
