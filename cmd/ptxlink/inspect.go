package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gpiler/ptxlink"
)

type moduleReport struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Lines int    `json:"lines"`
}

type rewriteReport struct {
	Line      int    `json:"line"`
	Before    string `json:"before"`
	After     string `json:"after"`
	InComment bool   `json:"in_comment,omitempty"`
}

type diagnosticReport struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Module   string `json:"module,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

// inspectReport describes a link without its output. Line numbers are
// 1-based; 0 means the marker was not found.
type inspectReport struct {
	Runtime      moduleReport       `json:"runtime"`
	Compiled     moduleReport       `json:"compiled"`
	VisibleLine  int                `json:"visible_line"`
	VisibleKind  string             `json:"visible_kind,omitempty"`
	FunctionLine int                `json:"function_line"`
	FunctionKind string             `json:"function_kind,omitempty"`
	BodyEndLine  int                `json:"body_end_line"`
	Preamble     int                `json:"preamble_lines"`
	Body         int                `json:"body_lines"`
	Declarations int                `json:"declaration_lines"`
	Rewrites     []rewriteReport    `json:"rewrites"`
	Diagnostics  []diagnosticReport `json:"diagnostics"`
	Failed       bool               `json:"failed"`
}

func (c *cli) newInspectCmd() *cobra.Command {
	lf := &linkFlags{}
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "inspect [RUNTIME COMPILED]",
		Short: "Show marker positions and rewrite sites without emitting output",
		Long: `Inspect performs a link and reports what it found: module sizes, the
visible and function marker lines, the body range, each rewritten line and
all diagnostics. Useful for checking a new runtime or compiled module
before linking it.`,
		Example: `  ptxlink inspect
  ptxlink inspect --json rt/wrapper.ptx build/kernel.ptx`,
		Args: moduleArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, opts, err := c.prepare(cmd, lf, args)
			if err != nil {
				return err
			}
			res, err := ptxlink.Link(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			report := buildInspectReport(res)
			if jsonOutput {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printInspectReport(c.stdout, report)
			}
			if report.Failed {
				return errStrictViolation
			}
			return nil
		},
	}
	lf.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func buildInspectReport(res *ptxlink.Result) inspectReport {
	r := inspectReport{
		Runtime:      moduleReport{Name: res.Runtime.Name(), Path: res.Runtime.Path(), Lines: res.Runtime.Len()},
		Compiled:     moduleReport{Name: res.Compiled.Name(), Path: res.Compiled.Path(), Lines: res.Compiled.Len()},
		VisibleLine:  res.Boundaries.Visible + 1,
		FunctionLine: res.Boundaries.Function + 1,
		Preamble:     len(res.Preamble),
		Body:         len(res.Body),
		Declarations: len(res.Declarations),
		Rewrites:     []rewriteReport{},
		Diagnostics:  []diagnosticReport{},
		Failed:       res.Failed(),
	}
	// The kind is the directive class of the marker line, so a marker that
	// matched an unintended line (a comment, an opcode) shows as unknown.
	if v := res.Boundaries.Visible; v >= 0 {
		r.VisibleKind = ptxlink.DirectiveClass(res.Runtime.Line(v))
	}
	if f := res.Boundaries.Function; f >= 0 {
		r.FunctionKind = ptxlink.DirectiveClass(res.Compiled.Line(f))
	}
	if res.Boundaries.BodyEnd >= 0 {
		r.BodyEndLine = res.Boundaries.BodyEnd
	}
	for _, rw := range res.Rewrites {
		r.Rewrites = append(r.Rewrites, rewriteReport{
			Line:      rw.Line + 1,
			Before:    rw.Before,
			After:     rw.After,
			InComment: rw.InComment,
		})
	}
	for _, d := range res.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, diagnosticReport{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Module:   d.Module,
			Line:     d.Line,
			Message:  d.Message,
		})
	}
	return r
}

func printInspectReport(w io.Writer, r inspectReport) {
	printModule := func(role string, m moduleReport) {
		if m.Path != "" && m.Path != m.Name {
			fmt.Fprintf(w, "%-10s %s (%s), %d lines\n", role+":", m.Name, m.Path, m.Lines)
			return
		}
		fmt.Fprintf(w, "%-10s %s, %d lines\n", role+":", m.Name, m.Lines)
	}
	printModule("runtime", r.Runtime)
	printModule("compiled", r.Compiled)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "BOUNDARIES:")
	fmt.Fprintf(w, "  visible marker:   %s\n", markerLine(r.VisibleLine, r.VisibleKind))
	fmt.Fprintf(w, "  function marker:  %s\n", markerLine(r.FunctionLine, r.FunctionKind))
	if r.FunctionLine > 0 {
		fmt.Fprintf(w, "  body:             lines %d-%d\n", r.FunctionLine, r.BodyEndLine)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "BLOCKS:")
	fmt.Fprintf(w, "  preamble:      %d lines\n", r.Preamble)
	fmt.Fprintf(w, "  body:          %d lines\n", r.Body)
	fmt.Fprintf(w, "  declarations:  %d lines\n", r.Declarations)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "REWRITES:")
	if len(r.Rewrites) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, rw := range r.Rewrites {
		note := ""
		if rw.InComment {
			note = " [in comment]"
		}
		fmt.Fprintf(w, "  line %d: %q -> %q%s\n", rw.Line, rw.Before, rw.After, note)
	}

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DIAGNOSTICS:")
		for _, d := range r.Diagnostics {
			loc := d.Module
			if d.Line > 0 {
				loc = fmt.Sprintf("%s:%d", d.Module, d.Line)
			}
			fmt.Fprintf(w, "  [%s] %s: %s (%s)\n", d.Severity, loc, d.Message, d.Code)
		}
	}
}

func markerLine(line int, kind string) string {
	if line <= 0 {
		return "(not found)"
	}
	return fmt.Sprintf("line %d (%s directive)", line, kind)
}
