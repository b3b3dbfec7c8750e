// Command ptxlink links a PTX runtime module with a compiled kernel module.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gpiler/ptxlink"
	"github.com/gpiler/ptxlink/cmd/internal/cliutil"
)

// Exit codes.
const (
	exitOK              = 0 // success
	exitError           = 1 // load, config or usage error
	exitStrictViolation = 2 // strict mode and a warning-or-worse diagnostic
)

// defaultConfigFile is read from the working directory when --config is
// not given. Its absence is not an error.
const defaultConfigFile = "ptxlink.yaml"

// errStrictViolation is returned by commands whose link produced a
// diagnostic at or above the failure threshold.
var errStrictViolation = errors.New("diagnostics at or above the failure threshold")

type cli struct {
	verbose    int
	configPath string
	paths      []string

	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errStrictViolation):
		return exitStrictViolation
	default:
		cliutil.PrintError(stderr, "%v", err)
		return exitError
	}
}

func (c *cli) newRootCmd() *cobra.Command {
	lf := &linkFlags{}
	root := &cobra.Command{
		Use:   "ptxlink",
		Short: "Link a PTX runtime module with a compiled kernel module",
		Long: `ptxlink splices a compiled kernel body into a PTX runtime module.

The output is the runtime's preamble (everything before the first .visible
line), then the compiled module from its first .func line, then the
runtime's declarations with the mangled kernel reference rewritten.

Without a subcommand ptxlink behaves like "ptxlink link".`,
		Args:          moduleArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLink(cmd, lf, args)
		},
	}

	pf := root.PersistentFlags()
	pf.CountVarP(&c.verbose, "verbose", "v", "debug logging; repeat (-vv) for trace logging")
	pf.StringVar(&c.configPath, "config", "", "configuration file (default "+defaultConfigFile+" if present)")
	pf.StringArrayVarP(&c.paths, "path", "p", nil, "add a module search directory (repeatable)")

	lf.register(root)

	root.AddCommand(
		c.newLinkCmd(),
		c.newInspectCmd(),
		c.newWatchCmd(),
		c.newPathsCmd(),
		c.newConfigCmd(),
		c.newVersionCmd(),
	)
	return root
}

func (c *cli) logger() *slog.Logger {
	return cliutil.NewLogger(c.stderr, c.verbose)
}

// loadConfig reads the configuration file named by --config, or the
// default file in the working directory. Only the default may be absent.
func (c *cli) loadConfig() (*ptxlink.Config, error) {
	path := c.configPath
	if path == "" {
		path = defaultConfigFile
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return ptxlink.LoadConfig(path)
}

// sources returns the lookup chain for the CLI: names as paths first,
// then each -p directory.
func (c *cli) sources() []ptxlink.Source {
	sources := []ptxlink.Source{ptxlink.OS()}
	for _, p := range c.paths {
		src, err := ptxlink.Dir(p)
		if err != nil {
			fmt.Fprintf(c.stderr, "warning: cannot access path %s: %v\n", p, err)
			continue
		}
		sources = append(sources, src)
	}
	return sources
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.stdout, "ptxlink %s\n", version())
		},
	}
}

func version() string {
	v := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		v = info.Main.Version
	}
	return v
}
