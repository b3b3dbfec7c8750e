package types

import (
	"fmt"
	"slices"
	"strings"
)

// Severity ranks a diagnostic. Lower values are more severe.
type Severity int

const (
	SeverityFatal   Severity = 0 // Cannot produce output
	SeveritySevere  Severity = 1 // Output produced but almost certainly wrong
	SeverityError   Severity = 2 // Output produced, should correct input
	SeverityMinor   Severity = 3 // Minor issue, should correct
	SeverityStyle   Severity = 4 // Style recommendation
	SeverityWarning Severity = 5 // Might be correct under some circumstances
	SeverityInfo    Severity = 6 // Informational notice
)

func (s Severity) String() string {
	switch s {
	case SeverityFatal:
		return "fatal"
	case SeveritySevere:
		return "severe"
	case SeverityError:
		return "error"
	case SeverityMinor:
		return "minor"
	case SeverityStyle:
		return "style"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", s)
	}
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s <= other
}

// ParseSeverity converts a severity name back to its value.
func ParseSeverity(name string) (Severity, bool) {
	for s := SeverityFatal; s <= SeverityInfo; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Diagnostic represents an issue found while loading or splicing.
type Diagnostic struct {
	Severity Severity
	Code     string // e.g., "visible-marker-missing", "rewrite-not-applied"
	Message  string
	Module   string // module name (file base name)
	Line     int    // 1-based line number, 0 if not applicable
}

// String returns a human-readable representation of the diagnostic.
// Format: "[severity] module:line: message" with location parts omitted when zero.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(d.Severity.String())
	b.WriteByte(']')
	b.WriteByte(' ')
	if d.Module != "" {
		b.WriteString(d.Module)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d", d.Line)
		}
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return b.String()
}

// DiagnosticConfig controls diagnostic filtering and failure.
type DiagnosticConfig struct {
	// FailAt sets the severity threshold for failure.
	// If any reported diagnostic has severity <= FailAt, the link fails.
	FailAt Severity

	// Overrides change severity for specific diagnostic codes.
	Overrides map[string]Severity

	// Ignore lists diagnostic codes to suppress entirely.
	// Supports glob patterns (e.g., "rewrite-*").
	Ignore []string
}

// DefaultConfig returns the default diagnostic configuration: only
// severe problems fail a link.
func DefaultConfig() DiagnosticConfig {
	return DiagnosticConfig{
		FailAt: SeveritySevere,
	}
}

// StrictConfig returns a configuration that fails on any warning.
func StrictConfig() DiagnosticConfig {
	return DiagnosticConfig{
		FailAt: SeverityWarning,
	}
}

// Apply returns the diagnostic after overrides, and false if the
// diagnostic is ignored.
func (c DiagnosticConfig) Apply(d Diagnostic) (Diagnostic, bool) {
	if slices.ContainsFunc(c.Ignore, func(pattern string) bool {
		return MatchGlob(pattern, d.Code)
	}) {
		return d, false
	}
	if override, ok := c.Overrides[d.Code]; ok {
		d.Severity = override
	}
	return d, true
}

// ShouldFail returns true if a diagnostic with the given severity should
// cause the link to fail.
func (c DiagnosticConfig) ShouldFail(sev Severity) bool {
	return sev.AtLeast(c.FailAt)
}

// MatchGlob performs simple glob matching with * wildcard.
func MatchGlob(pattern, s string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(s, suffix)
	}
	return pattern == s
}
