// Package ptxlink links a PTX runtime module with a compiled kernel module.
//
// The runtime module supplies the preamble (everything before the first
// visible declaration) and the declarations (everything from it on). The
// compiled module supplies the function body. On the way, references to
// the compiled kernel's mangled name in the declarations are rewritten to
// the body's symbol.
package ptxlink

import (
	"context"
	"log/slog"
	"slices"

	"github.com/gpiler/ptxlink/internal/config"
	"github.com/gpiler/ptxlink/internal/link"
	"github.com/gpiler/ptxlink/internal/ptx"
	"github.com/gpiler/ptxlink/internal/types"
)

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-line logging (tokens, rewrites).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = types.LevelTrace

// Option configures Link.
type Option func(*linkConfig)

type linkConfig struct {
	logger      *slog.Logger
	sources     []Source
	searchDirs  []string
	searchPaths bool
	runtime     string
	compiled    string
	rules       link.Rules
	lenient     bool
	diagConfig  types.DiagnosticConfig
}

func defaultLinkConfig() linkConfig {
	return linkConfig{
		runtime:    config.DefaultRuntimePath,
		compiled:   config.DefaultCompiledPath,
		rules:      link.DefaultRules(),
		diagConfig: types.DefaultConfig(),
	}
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *linkConfig) { c.logger = logger }
}

// WithSource adds a source to search for modules. Sources are tried in
// the order given. Without any source, module names are opened as paths.
func WithSource(src Source) Option {
	return func(c *linkConfig) {
		if src != nil {
			c.sources = append(c.sources, src)
		}
	}
}

// WithModules sets the names of the runtime and compiled modules.
func WithModules(runtime, compiled string) Option {
	return func(c *linkConfig) {
		c.runtime = runtime
		c.compiled = compiled
	}
}

// WithRules sets the splice rules.
func WithRules(rules Rules) Option {
	return func(c *linkConfig) { c.rules = rules }
}

// WithLenient degrades unreadable modules to empty ones with a warning
// instead of failing the link.
func WithLenient() Option {
	return func(c *linkConfig) { c.lenient = true }
}

// WithDiagnosticConfig sets diagnostic filtering and the failure threshold.
func WithDiagnosticConfig(dc DiagnosticConfig) Option {
	return func(c *linkConfig) { c.diagConfig = dc }
}

// WithStrict makes any warning fail the link.
func WithStrict() Option {
	return func(c *linkConfig) { c.diagConfig.FailAt = types.SeverityWarning }
}

// WithConfig applies a configuration file's module paths, rules, lenient
// flag, search paths and diagnostic settings. Later options override it.
func WithConfig(cfg *Config) Option {
	return func(c *linkConfig) {
		if cfg == nil {
			return
		}
		c.runtime = cfg.RuntimePath
		c.compiled = cfg.CompiledPath
		c.rules = cfg.Rules()
		c.lenient = cfg.Lenient
		c.searchDirs = append(c.searchDirs, cfg.SearchPaths...)
		c.diagConfig = cfg.DiagnosticConfig()
	}
}

// LoadConfig reads and validates a configuration file.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Result is a completed link.
type Result struct {
	*link.Result

	// Runtime and Compiled are the input modules as loaded. In lenient
	// mode an unreadable module is present but empty.
	Runtime  *Module
	Compiled *Module

	// Diagnostics from loading and splicing, after filtering.
	Diagnostics []Diagnostic

	diagConfig DiagnosticConfig
}

// Failed reports whether any diagnostic reaches the failure threshold.
func (r *Result) Failed() bool {
	for _, d := range r.Diagnostics {
		if r.diagConfig.ShouldFail(d.Severity) {
			return true
		}
	}
	return false
}

// Link loads the runtime and compiled modules and splices them.
//
// Example:
//
//	res, err := ptxlink.Link(ctx,
//	    ptxlink.WithModules("example1.ptx", "input.ptx"),
//	    ptxlink.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    return err
//	}
//	_, err = res.WriteTo(os.Stdout)
func Link(ctx context.Context, opts ...Option) (*Result, error) {
	cfg := defaultLinkConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.rules.Validate(); err != nil {
		return nil, err
	}

	logger := types.Logger{L: cfg.logger}
	src := cfg.source()

	rt, err := loadModule(ctx, src, cfg.runtime, &cfg)
	if err != nil {
		return nil, err
	}
	cm, err := loadModule(ctx, src, cfg.compiled, &cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	splicer := link.NewSplicer(cfg.rules, types.Component(cfg.logger, "splicer"))
	spliced := splicer.Splice(rt.module, cm.module)

	res := &Result{
		Result:     spliced,
		Runtime:    rt.module,
		Compiled:   cm.module,
		diagConfig: cfg.diagConfig,
	}
	for _, group := range [][]types.Diagnostic{rt.diagnostics, cm.diagnostics, spliced.Diagnostics} {
		for _, d := range group {
			if d, ok := cfg.diagConfig.Apply(d); ok {
				res.Diagnostics = append(res.Diagnostics, d)
			}
		}
	}

	logger.Log(slog.LevelInfo, "link complete",
		slog.String("runtime", rt.module.Name()),
		slog.String("compiled", cm.module.Name()),
		slog.Int("lines", len(spliced.Preamble)+len(spliced.Body)+len(spliced.Declarations)),
		slog.Int("diagnostics", len(res.Diagnostics)))
	return res, nil
}

// source assembles the lookup chain: explicit sources, or the working
// directory when none were given, followed by configured and discovered
// search directories.
func (c *linkConfig) source() Source {
	chain := slices.Clone(c.sources)
	if len(chain) == 0 {
		chain = []Source{OS()}
	}
	for _, d := range c.searchDirs {
		if src, err := Dir(d); err == nil {
			chain = append(chain, src)
		}
	}
	if c.searchPaths {
		chain = append(chain, discoverSearchSources(types.Logger{L: c.logger})...)
	}
	if len(chain) == 1 {
		return chain[0]
	}
	return Multi(chain...)
}

// Splice splices two already loaded modules with the given rules.
func Splice(runtime, compiled *Module, rules Rules, logger *slog.Logger) *SpliceResult {
	return link.NewSplicer(rules, logger).Splice(runtime, compiled)
}

// ReadModule reads a module from src without linking. It is the loader
// used by Link, exposed for inspection tools.
func ReadModule(src Source, name string) (*Module, error) {
	mod, lerr := readModule(src, name)
	if lerr != nil {
		return nil, lerr
	}
	return mod, nil
}

// DirectiveClass names the class of the directive a line leads with:
// module, linkage, state, perf, debug, or unknown.
func DirectiveClass(line string) string {
	return ptx.Parse(line, nil).DirectiveClass().String()
}

// NewModule builds a module from lines already in memory.
func NewModule(name string, lines []string) *Module {
	return ptx.NewModule(name, name, lines)
}
