package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gpiler/ptxlink"
)

func (c *cli) newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show module search paths",
		Long: `Show the directories searched for modules, in lookup order, after the
names themselves are tried as paths: each -p directory, the configured
search_paths, then directories from ~/.ptxlinkrc, /etc/ptxlink.conf and
PTXLINK_PATH. Directories that do not exist are omitted.`,
		Example: `  ptxlink paths
  PTXLINK_PATH=+/opt/cuda/ptx ptxlink paths`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			var paths []string
			paths = append(paths, c.paths...)
			paths = append(paths, cfg.SearchPaths...)
			paths = append(paths, ptxlink.DiscoverSearchPaths(c.logger())...)

			if len(paths) == 0 {
				fmt.Fprintln(c.stderr, "no search paths found")
				return nil
			}
			for _, p := range paths {
				fmt.Fprintln(c.stdout, p)
			}
			return nil
		},
	}
}
