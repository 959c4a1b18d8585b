package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/spf13/cobra"

	"github.com/abelbrown/moyu/internal/app"
	"github.com/abelbrown/moyu/internal/logging"
	"github.com/abelbrown/moyu/internal/ui"
)

func newReportCommand(c *cli) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the HTML report and charts",
		Example: `  moyu report -i MSG.csv -o moyu_results
  moyu report -i MSG0.db --privileged 老板 --timezone Asia/Shanghai --notify`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.run(cmd.Context(), app.StageReport)
			if notify {
				notifyDone(res, err)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printSummary(out, res, c.cfg.Report.TopK)
			fmt.Fprintf(out, "\n%s %s (%d charts, %d skipped)\n",
				labelStyle.Render("Report:"), res.ReportPath, res.Charts.Rendered, res.Charts.Skipped)
			if res.Charts.Failed > 0 {
				fmt.Fprintf(out, "%s %d charts failed, see the event log\n", warnStyle.Render("Warning:"), res.Charts.Failed)
			}
			return nil
		},
	}
	f := cmd.Flags()
	inputFlags(f)
	f.StringP("output", "o", "", "output directory (default moyu_results)")
	f.String("title", "", "report title")
	f.String("font", "", "TTF font with CJK glyphs for chart labels")
	f.String("metrics-out", "", "write Prometheus metrics to this textfile")
	f.BoolVar(&notify, "notify", false, "show a desktop notification when done")
	return cmd
}

func notifyDone(res *app.Result, err error) {
	beeep.AppName = "moyu"
	title, msg := "moyu report ready", ""
	if err != nil {
		title, msg = "moyu report failed", err.Error()
	} else {
		msg = fmt.Sprintf("%d active messages over %d days\n%s",
			res.State.Counters.Active, res.State.NumActiveDays(), res.ReportPath)
	}
	if nerr := beeep.Notify(title, msg, ""); nerr != nil {
		logging.Debug("notification failed", "err", nerr)
	}
}

func newStatsCommand(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print counters and the leaderboard without writing a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.run(cmd.Context(), app.StageAggregate)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				data, err := res.State.Snapshot()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			printSummary(out, res, c.cfg.Report.TopK)
			return nil
		},
	}
	f := cmd.Flags()
	inputFlags(f)
	f.BoolVar(&asJSON, "json", false, "print the aggregate state as JSON")
	return cmd
}

func newBrowseCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Explore the results in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.run(cmd.Context(), app.StageAnalyze)
			if err != nil {
				return err
			}
			m := ui.New(c.cfg.Report.Title, res.Data, res.Events)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	inputFlags(cmd.Flags())
	return cmd
}
