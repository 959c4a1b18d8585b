package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/moyu/internal/config"
	"github.com/abelbrown/moyu/internal/report"
	"github.com/abelbrown/moyu/internal/window"
)

func newConfigCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or print the configuration",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to path (default " + config.FileName + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := c.cfg.Marshal()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if used := c.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "# from %s\n", used)
			}
			loc, err := c.cfg.Location()
			if err != nil {
				return err
			}
			p, err := window.New(window.Options{
				Weekdays:  c.cfg.Window.Weekdays,
				StartHour: c.cfg.Window.StartHour,
				EndHour:   c.cfg.Window.EndHour,
				Location:  loc,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "# window: %s\n", report.DescribeWindow(p))
			_, err = out.Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
