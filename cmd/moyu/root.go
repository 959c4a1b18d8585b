package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/abelbrown/moyu/internal/app"
	"github.com/abelbrown/moyu/internal/config"
	"github.com/abelbrown/moyu/internal/eventlog"
	"github.com/abelbrown/moyu/internal/logging"
)

// flagKeys maps command-line flags to config keys. A flag only overrides
// the config when it is set.
var flagKeys = map[string]string{
	"input":       "input.path",
	"format":      "input.format",
	"table":       "input.table",
	"output":      "report.output_dir",
	"title":       "report.title",
	"top":         "report.top_k",
	"font":        "report.font",
	"privileged":  "window.privileged",
	"timezone":    "window.timezone",
	"segmenter":   "text.segmenter",
	"workers":     "ingest.workers",
	"metrics-out": "metrics.textfile",
	"log-file":    "log.file",
	"events":      "log.events",
}

// cli holds state shared by every subcommand.
type cli struct {
	v          *viper.Viper
	configPath string
	verbose    bool

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "moyu",
		Short: "Group chat working-hours report",
		Long: `moyu reads a chat export (CSV or SQLite), counts the messages each member
sends during business hours and writes an HTML report with charts.

Configuration is layered: built-in defaults, moyu.yaml (./ or ~/.moyu/),
MOYU_* environment variables (MOYU_WINDOW_START_HOUR=10), then flags.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "config file (default ./moyu.yaml or ~/.moyu/moyu.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	pf.String("log-file", "", "write logs to this file instead of stderr")
	pf.String("events", "", "JSONL event log (default ~/.moyu/events.jsonl)")

	root.AddCommand(
		newReportCommand(c),
		newStatsCommand(c),
		newBrowseCommand(c),
		newEventsCommand(c),
		newConfigCommand(c),
	)
	return root
}

// inputFlags registers the flags shared by commands that read an export.
func inputFlags(f *pflag.FlagSet) {
	f.StringP("input", "i", "", "chat export to analyze (.csv or .db)")
	f.String("format", "", "input format: csv or sqlite (default: from extension)")
	f.String("table", "", "SQLite message table (default MSG)")
	f.StringSlice("privileged", nil, "identities always counted as active (repeatable)")
	f.String("timezone", "", "IANA time zone for timestamps (default local)")
	f.String("segmenter", "", "word segmenter: gse or fields")
	f.Int("workers", 0, "aggregation workers (0 = every CPU)")
	f.Int("top", 0, "leaderboard size")
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := c.v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(c.v, c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	level := cfg.Log.Level
	if c.verbose {
		level = "debug"
	}
	return logging.Init(logging.Options{
		Writer: cmd.ErrOrStderr(),
		File:   cfg.Log.File,
		Level:  level,
	})
}

func (c *cli) teardown(*cobra.Command, []string) error {
	logging.Close()
	return nil
}

// openEvents opens the configured event log. A log that cannot be opened
// is reported and replaced by a discarding one.
func (c *cli) openEvents() *eventlog.Logger {
	path := c.cfg.Log.Events
	if path == "" {
		return eventlog.Discard()
	}
	l, err := eventlog.Open(path)
	if err != nil {
		logging.Warn("event log disabled", "path", path, "err", err)
		return eventlog.Discard()
	}
	return l
}

// run executes the pipeline with the loaded config. The event log is
// flushed before run returns, failed runs included.
func (c *cli) run(ctx context.Context, stage app.Stage) (*app.Result, error) {
	if c.cfg.Input.Path == "" {
		return nil, fmt.Errorf("no input: pass --input or set input.path in %s", config.FileName)
	}
	events := c.openEvents()
	defer events.Close()

	return app.Run(ctx, app.Options{
		Config: c.cfg,
		Stage:  stage,
		Events: events,
	})
}
