package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gpiler/ptxlink"
	"github.com/gpiler/ptxlink/cmd/internal/cliutil"
	"github.com/gpiler/ptxlink/internal/watch"
)

func (c *cli) newWatchCmd() *cobra.Command {
	lf := &linkFlags{}
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [RUNTIME COMPILED]",
		Short: "Relink whenever either module changes",
		Long: `Watch links once, then relinks each time the runtime or compiled module
is written. Failed relinks are reported and watching continues. Stop with
Ctrl-C.`,
		Example: `  ptxlink watch -o linked.ptx
  ptxlink watch rt/wrapper.ptx build/kernel.ptx -o build/linked.ptx`,
		Args: moduleArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, opts, err := c.prepare(cmd, lf, args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			res, err := c.relink(ctx, opts, lf.output)
			if err != nil {
				return err
			}

			files := []string{watchPath(res.Runtime, cfg.RuntimePath), watchPath(res.Compiled, cfg.CompiledPath)}
			w, err := watch.New(files, func(ctx context.Context, changed []string) error {
				fmt.Fprintf(c.stderr, "changed: %v\n", changed)
				_, err := c.relink(ctx, opts, lf.output)
				if err != nil {
					cliutil.PrintError(c.stderr, "%v", err)
				}
				return err
			}, watch.WithDebounce(debounce), watch.WithLogger(c.logger()))
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				w.Stop()
				return fmt.Errorf("watch: %w", err)
			}
			fmt.Fprintf(c.stderr, "watching %s and %s\n", files[0], files[1])

			<-ctx.Done()
			w.Stop()
			return nil
		},
	}
	lf.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before relinking")
	return cmd
}

// relink performs one link and writes its output.
func (c *cli) relink(ctx context.Context, opts []ptxlink.Option, output string) (*ptxlink.Result, error) {
	res, err := ptxlink.Link(ctx, opts...)
	if err != nil {
		return nil, err
	}
	cliutil.PrintDiagnostics(c.stderr, res.Diagnostics)
	if err := c.writeResult(res, output); err != nil {
		return nil, err
	}
	return res, nil
}

// watchPath returns the file to watch for a module: where it was loaded
// from, or the configured name if it could not be loaded.
func watchPath(m *ptxlink.Module, configured string) string {
	if p := m.Path(); p != "" {
		return p
	}
	return configured
}
