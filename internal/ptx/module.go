// Package ptx holds the in-memory form of a PTX text module: an immutable,
// ordered sequence of lines plus a minimal per-line instruction record.
package ptx

import (
	"slices"
	"strings"
)

// Module is an ordered, immutable sequence of PTX source lines.
type Module struct {
	name  string
	path  string
	lines []string
}

// NewModule creates a module from lines. The slice is copied.
func NewModule(name, path string, lines []string) *Module {
	return &Module{
		name:  name,
		path:  path,
		lines: slices.Clone(lines),
	}
}

// Empty returns a module with no lines.
func Empty(name, path string) *Module {
	return &Module{name: name, path: path}
}

// Name returns the module name (the file base name).
func (m *Module) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Path returns the source path used for diagnostics.
func (m *Module) Path() string {
	if m == nil {
		return ""
	}
	return m.path
}

// Len returns the number of lines.
func (m *Module) Len() int {
	if m == nil {
		return 0
	}
	return len(m.lines)
}

// Line returns the i-th line (0-based), or "" for a nil module.
func (m *Module) Line(i int) string {
	if m == nil {
		return ""
	}
	return m.lines[i]
}

// Lines returns a copy of the module's lines.
func (m *Module) Lines() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.lines)
}

// All iterates over (index, line) pairs without copying.
func (m *Module) All() func(yield func(int, string) bool) {
	return func(yield func(int, string) bool) {
		if m == nil {
			return
		}
		for i, line := range m.lines {
			if !yield(i, line) {
				return
			}
		}
	}
}

// IndexPrefix returns the index of the first line starting with prefix,
// or -1.
func (m *Module) IndexPrefix(prefix string) int {
	if m == nil {
		return -1
	}
	return slices.IndexFunc(m.lines, func(line string) bool {
		return strings.HasPrefix(line, prefix)
	})
}
