package ptxlink

import (
	"github.com/gpiler/ptxlink/internal/config"
	"github.com/gpiler/ptxlink/internal/link"
	"github.com/gpiler/ptxlink/internal/ptx"
	"github.com/gpiler/ptxlink/internal/types"
)

// Type aliases for the public API.

// Module is a loaded PTX text module: a name, a path and its lines.
type Module = ptx.Module

// Rules configures marker detection and symbol rewriting.
type Rules = link.Rules

// BodyEnd selects where the body copied from the compiled module ends.
type BodyEnd = link.BodyEnd

// MatchPolicy selects how rewrite candidates are matched.
type MatchPolicy = link.MatchPolicy

// SpliceResult holds the preamble, body and declarations of a splice.
type SpliceResult = link.Result

// Boundaries records where the splice markers were found.
type Boundaries = link.Boundaries

// Rewrite records one rewritten runtime line.
type Rewrite = link.Rewrite

// Config is a ptxlink configuration file.
type Config = config.Config

// ValidationError lists every invalid field of a Config.
type ValidationError = config.ValidationError

// Diagnostic represents a load or splice issue.
type Diagnostic = types.Diagnostic

// DiagnosticConfig controls diagnostic filtering and failure.
type DiagnosticConfig = types.DiagnosticConfig

// Severity for diagnostics.
type Severity = types.Severity

// Severity levels, most severe first.
const (
	SeverityFatal   = types.SeverityFatal
	SeveritySevere  = types.SeveritySevere
	SeverityError   = types.SeverityError
	SeverityMinor   = types.SeverityMinor
	SeverityStyle   = types.SeverityStyle
	SeverityWarning = types.SeverityWarning
	SeverityInfo    = types.SeverityInfo
)

// Body end modes.
const (
	BodyEndEOF      = link.BodyEndEOF
	BodyEndFunction = link.BodyEndFunction
)

// Match policies.
const (
	MatchOperand   = link.MatchOperand
	MatchSubstring = link.MatchSubstring
)

// DefaultRules returns the built-in splice rules.
func DefaultRules() Rules {
	return link.DefaultRules()
}

// DefaultDiagnosticConfig returns the default diagnostic configuration.
func DefaultDiagnosticConfig() DiagnosticConfig {
	return types.DefaultConfig()
}

// StrictDiagnosticConfig returns a configuration that fails on warnings.
func StrictDiagnosticConfig() DiagnosticConfig {
	return types.StrictConfig()
}
