package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gpiler/ptxlink"
)

func (c *cli) newConfigCmd() *cobra.Command {
	lf := &linkFlags{}
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration a link would use: defaults, overlaid with the
configuration file, PTXLINK_RUNTIME/PTXLINK_COMPILED and any link flags.`,
		Args: moduleArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.prepare(cmd, lf, args)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(data)
			return err
		},
	}
	lf.register(cmd)
	cmd.AddCommand(c.newConfigInitCmd())
	return cmd
}

func (c *cli) newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [FILE]",
		Short: "Write a configuration file with the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := ptxlink.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
