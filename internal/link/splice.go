package link

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gpiler/ptxlink/internal/ptx"
	"github.com/gpiler/ptxlink/internal/types"
)

// Boundaries records where the splicer found its markers. Indices are
// 0-based line numbers; -1 means the marker was not found.
type Boundaries struct {
	// Visible is the index of the first visible-marker line in the runtime module.
	Visible int
	// Function is the index of the first function-marker line in the compiled module.
	Function int
	// BodyEnd is the exclusive end of the body in the compiled module.
	BodyEnd int
}

// Rewrite records one rewritten runtime line.
type Rewrite struct {
	Line      int // 0-based index in the runtime module
	Before    string
	After     string
	InComment bool
}

// Result holds the three output blocks of a splice.
type Result struct {
	Preamble     []string
	Body         []string
	Declarations []string

	Boundaries  Boundaries
	Rewrites    []Rewrite
	Diagnostics []types.Diagnostic
}

// Lines returns the blocks concatenated in output order.
func (r *Result) Lines() []string {
	out := make([]string, 0, len(r.Preamble)+len(r.Body)+len(r.Declarations))
	out = append(out, r.Preamble...)
	out = append(out, r.Body...)
	out = append(out, r.Declarations...)
	return out
}

type scanState int

const (
	seeking scanState = iota
	emitting
)

// Splicer combines a runtime module and a compiled module.
// A Splicer holds no per-run state and may be reused.
type Splicer struct {
	rules Rules
	types.Logger
}

// NewSplicer returns a Splicer for the given rules.
// Rules are assumed valid; see Rules.Validate.
func NewSplicer(rules Rules, logger *slog.Logger) *Splicer {
	return &Splicer{
		rules:  rules,
		Logger: types.Logger{L: logger},
	}
}

// Rules returns the splicer's rules.
func (s *Splicer) Rules() Rules {
	return s.rules
}

// Splice produces the preamble and declarations from runtime and the body
// from compiled. Either module may be nil or empty.
func (s *Splicer) Splice(runtime, compiled *ptx.Module) *Result {
	res := &Result{
		Boundaries: Boundaries{Visible: -1, Function: -1, BodyEnd: -1},
	}
	s.scanRuntime(runtime, res)
	s.extractBody(compiled, res)

	s.Log(slog.LevelDebug, "splice complete",
		slog.Int("preamble", len(res.Preamble)),
		slog.Int("body", len(res.Body)),
		slog.Int("declarations", len(res.Declarations)),
		slog.Int("rewrites", len(res.Rewrites)))
	return res
}

// scanRuntime classifies each runtime line in a single forward pass.
// Lines before the first visible marker go to the preamble; the marker
// and everything after it go to the declarations, with the kernel
// reference rewritten on lines after the marker.
func (s *Splicer) scanRuntime(runtime *ptx.Module, res *Result) {
	state := seeking
	inComment := false
	for i, line := range runtime.All() {
		var in ptx.Instruction
		in, inComment = ptx.ParseContinuing(line, inComment, s.L)

		if state == seeking {
			if !strings.HasPrefix(line, s.rules.VisibleMarker) {
				res.Preamble = append(res.Preamble, line)
				continue
			}
			state = emitting
			res.Boundaries.Visible = i
			res.Declarations = append(res.Declarations, line)
			s.Log(slog.LevelDebug, "visible marker found",
				slog.String("module", runtime.Name()),
				slog.Int("line", i+1))
			continue
		}

		res.Declarations = append(res.Declarations, s.rewrite(runtime, i, in, res))
	}

	if runtime.Len() > 0 && state == seeking {
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Severity: types.SeverityWarning,
			Code:     types.DiagVisibleMarkerMissing,
			Message:  fmt.Sprintf("no line starts with %q; the whole module is preamble", s.rules.VisibleMarker),
			Module:   runtime.Name(),
		})
	}
	if state == emitting && len(res.Rewrites) == 0 {
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Severity: types.SeverityWarning,
			Code:     types.DiagRewriteNotApplied,
			Message:  fmt.Sprintf("no reference to %s was rewritten", s.rules.RewriteFrom),
			Module:   runtime.Name(),
		})
	}
}

// rewrite applies the match policy to one declaration line and returns
// the line to emit.
func (s *Splicer) rewrite(runtime *ptx.Module, i int, in ptx.Instruction, res *Result) string {
	line := in.Line
	var out string
	inComment := false

	switch s.rules.Match {
	case MatchSubstring:
		needle := s.rules.RewriteFrom + ","
		idx := strings.Index(line, needle)
		if idx < 0 {
			return line
		}
		out = strings.ReplaceAll(line, needle, s.rules.RewriteTo+",")
		inComment = in.InComment(idx)
	default:
		spans := in.SymbolRefs(s.rules.RewriteFrom)
		if len(spans) == 0 {
			return line
		}
		out = ptx.ReplaceSpans(line, spans, s.rules.RewriteTo)
	}

	res.Rewrites = append(res.Rewrites, Rewrite{
		Line:      i,
		Before:    line,
		After:     out,
		InComment: inComment,
	})
	if inComment {
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Severity: types.SeverityWarning,
			Code:     types.DiagRewriteInComment,
			Message:  fmt.Sprintf("rewrote %s inside a comment", s.rules.RewriteFrom),
			Module:   runtime.Name(),
			Line:     i + 1,
		})
	}
	if s.TraceEnabled() {
		s.Trace("rewrite",
			slog.Int("line", i+1),
			slog.String("before", line),
			slog.String("after", out))
	}
	return out
}

// extractBody copies the compiled module from the first function marker
// to the configured end.
func (s *Splicer) extractBody(compiled *ptx.Module, res *Result) {
	state := seeking
	trackBraces := s.rules.BodyEnd == BodyEndFunction
	inComment := false
	depth := 0
	opened := false

	for i, line := range compiled.All() {
		var in ptx.Instruction
		if trackBraces {
			in, inComment = ptx.ParseContinuing(line, inComment, s.L)
		}

		if state == seeking {
			if !strings.HasPrefix(line, s.rules.FunctionMarker) {
				continue
			}
			state = emitting
			res.Boundaries.Function = i
			s.Log(slog.LevelDebug, "function marker found",
				slog.String("module", compiled.Name()),
				slog.Int("line", i+1))
		}

		res.Body = append(res.Body, line)

		if trackBraces {
			// Closing braces before the function's opening brace are ignored.
			for _, b := range in.Braces() {
				switch {
				case b == '{':
					opened = true
					depth++
				case opened:
					depth--
				}
			}
			if opened && depth <= 0 {
				res.Boundaries.BodyEnd = i + 1
				return
			}
		}
	}

	if state == seeking {
		if compiled.Len() > 0 {
			res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
				Severity: types.SeverityWarning,
				Code:     types.DiagFunctionMarkerMissing,
				Message:  fmt.Sprintf("no line starts with %q; the body is empty", s.rules.FunctionMarker),
				Module:   compiled.Name(),
			})
		}
		return
	}

	res.Boundaries.BodyEnd = compiled.Len()
	if trackBraces {
		res.Diagnostics = append(res.Diagnostics, types.Diagnostic{
			Severity: types.SeverityWarning,
			Code:     types.DiagUnterminatedFunction,
			Message:  "function braces never balance; body copied to end of module",
			Module:   compiled.Name(),
			Line:     res.Boundaries.Function + 1,
		})
	}
}
