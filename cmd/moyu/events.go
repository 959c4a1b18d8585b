package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/moyu/internal/eventlog"
)

const followPoll = 100 * time.Millisecond

func newEventsCommand(c *cli) *cobra.Command {
	var (
		q       eventlog.Query
		level   string
		follow  bool
		rawJSON bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the JSONL event log",
		Example: `  moyu events --tail 20
  moyu events --kind ingest --level warn
  moyu events -f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q.MinLevel = eventlog.Level(level)
			path := c.cfg.Log.Events
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open event log %s: %w (run moyu report first)", path, err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			show := func(l eventlog.Line) {
				if rawJSON {
					fmt.Fprintln(out, string(l.Raw))
				} else {
					fmt.Fprintln(out, eventlog.Format(l.Event))
				}
			}

			lines, err := eventlog.Read(f, q)
			if err != nil {
				return err
			}
			for _, l := range lines {
				show(l)
			}
			if !follow {
				return nil
			}
			return followLog(cmd.Context(), f, q, show)
		},
	}
	f := cmd.Flags()
	f.IntVar(&q.Tail, "tail", 50, "number of recent events to show (0 = all)")
	f.StringVar(&q.Kind, "kind", "", "filter by event kind prefix (e.g. 'chart')")
	f.StringVar(&level, "level", "", "minimum level: debug, info, warn, error")
	f.StringVar(&q.Comp, "comp", "", "filter by component")
	f.StringVar(&q.RunID, "run", "", "filter by run ID")
	f.BoolVarP(&follow, "follow", "f", false, "keep printing new events")
	f.BoolVar(&rawJSON, "json", false, "print raw JSON lines")
	return cmd
}

// followLog polls r for appended lines until ctx is done.
func followLog(ctx context.Context, r io.Reader, q eventlog.Query, show func(eventlog.Line)) error {
	br := bufio.NewReader(r)
	var partial []byte
	for {
		chunk, err := br.ReadBytes('\n')
		partial = append(partial, chunk...)
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(followPoll):
			}
			continue
		}
		if err != nil {
			return err
		}

		raw := partial[:len(partial)-1]
		partial = nil
		var e eventlog.Event
		if len(raw) == 0 || json.Unmarshal(raw, &e) != nil || !q.Match(e) {
			continue
		}
		show(eventlog.Line{Event: e, Raw: raw})
	}
}
