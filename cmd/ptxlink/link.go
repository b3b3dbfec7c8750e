package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gpiler/ptxlink"
	"github.com/gpiler/ptxlink/cmd/internal/cliutil"
)

// linkFlags are the flags shared by every command that performs a link.
// A flag overrides the configuration file only when set explicitly.
type linkFlags struct {
	runtime        string
	compiled       string
	output         string
	functionMarker string
	visibleMarker  string
	rewriteFrom    string
	rewriteTo      string
	bodyEnd        string
	match          string
	lenient        bool
	strict         bool
}

func (lf *linkFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&lf.runtime, "runtime", "", "runtime module (default example1.ptx)")
	f.StringVar(&lf.compiled, "compiled", "", "compiled module (default input.ptx)")
	f.StringVarP(&lf.output, "output", "o", "", "write the linked module to FILE instead of stdout")
	f.StringVar(&lf.functionMarker, "function-marker", "", "line prefix that starts the body (default .func)")
	f.StringVar(&lf.visibleMarker, "visible-marker", "", "line prefix that starts the declarations (default .visible)")
	f.StringVar(&lf.rewriteFrom, "rewrite-from", "", "symbol rewritten in the declarations")
	f.StringVar(&lf.rewriteTo, "rewrite-to", "", "replacement symbol")
	f.StringVar(&lf.bodyEnd, "body-end", "", "where the body ends: eof or function")
	f.StringVar(&lf.match, "match", "", "rewrite match policy: operand or substring")
	f.BoolVar(&lf.lenient, "lenient", false, "treat unreadable modules as empty")
	f.BoolVar(&lf.strict, "strict", false, "exit 2 if any warning is reported")
}

// apply overlays explicitly set flags and positional module names onto cfg.
func (lf *linkFlags) apply(flags *pflag.FlagSet, cfg *ptxlink.Config, args []string) error {
	if len(args) == 2 {
		cfg.RuntimePath, cfg.CompiledPath = args[0], args[1]
	}
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("runtime", &cfg.RuntimePath, lf.runtime)
	set("compiled", &cfg.CompiledPath, lf.compiled)
	set("function-marker", &cfg.FunctionMarker, lf.functionMarker)
	set("visible-marker", &cfg.VisibleMarker, lf.visibleMarker)
	set("rewrite-from", &cfg.RewriteFrom, lf.rewriteFrom)
	set("rewrite-to", &cfg.RewriteTo, lf.rewriteTo)
	if flags.Changed("body-end") {
		cfg.BodyEnd = ptxlink.BodyEnd(lf.bodyEnd)
	}
	if flags.Changed("match") {
		cfg.Match = ptxlink.MatchPolicy(lf.match)
	}
	if flags.Changed("lenient") {
		cfg.Lenient = lf.lenient
	}
	if lf.strict {
		cfg.Diagnostics.FailAt = ptxlink.SeverityWarning.String()
	}
	return cfg.Validate()
}

// moduleArgs accepts either no positional arguments or exactly the
// runtime and compiled module names.
func moduleArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 && len(args) != 2 {
		return fmt.Errorf("%s takes no arguments or RUNTIME COMPILED, got %d", cmd.CommandPath(), len(args))
	}
	return nil
}

func (c *cli) newLinkCmd() *cobra.Command {
	lf := &linkFlags{}
	cmd := &cobra.Command{
		Use:   "link [RUNTIME COMPILED]",
		Short: "Link the runtime and compiled modules",
		Long: `Link the runtime and compiled modules and write the result.

Modules are given positionally, with --runtime/--compiled, or in the
configuration file; the defaults are example1.ptx and input.ptx. Names are
opened as paths, then looked up in each -p directory, the configured
search_paths and PTXLINK_PATH.`,
		Example: `  ptxlink link
  ptxlink link rt/wrapper.ptx build/kernel.ptx -o linked.ptx
  ptxlink link --body-end function --strict`,
		Args: moduleArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLink(cmd, lf, args)
		},
	}
	lf.register(cmd)
	return cmd
}

// prepare resolves the effective configuration and link options.
func (c *cli) prepare(cmd *cobra.Command, lf *linkFlags, args []string) (*ptxlink.Config, []ptxlink.Option, error) {
	if err := moduleArgs(cmd, args); err != nil {
		return nil, nil, err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := lf.apply(cmd.Flags(), cfg, args); err != nil {
		return nil, nil, err
	}

	opts := []ptxlink.Option{
		ptxlink.WithConfig(cfg),
		ptxlink.WithLogger(c.logger()),
		ptxlink.WithSearchPaths(),
	}
	for _, src := range c.sources() {
		opts = append(opts, ptxlink.WithSource(src))
	}
	return cfg, opts, nil
}

func (c *cli) runLink(cmd *cobra.Command, lf *linkFlags, args []string) error {
	_, opts, err := c.prepare(cmd, lf, args)
	if err != nil {
		return err
	}

	res, err := ptxlink.Link(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	cliutil.PrintDiagnostics(c.stderr, res.Diagnostics)

	if err := c.writeResult(res, lf.output); err != nil {
		return err
	}
	if res.Failed() {
		return errStrictViolation
	}
	return nil
}

func (c *cli) writeResult(res *ptxlink.Result, output string) error {
	w, commit, cleanup, err := cliutil.GetOutput(output, c.stdout)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer cleanup()

	if _, err := res.WriteTo(w); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return commit()
}
