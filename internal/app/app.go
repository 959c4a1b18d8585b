// Package app runs the analysis pipeline end to end: read the export,
// aggregate, derive the report dataset, render charts and write the report.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/abelbrown/moyu/internal/aggregate"
	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/chart"
	"github.com/abelbrown/moyu/internal/config"
	"github.com/abelbrown/moyu/internal/eventlog"
	"github.com/abelbrown/moyu/internal/logging"
	"github.com/abelbrown/moyu/internal/metrics"
	"github.com/abelbrown/moyu/internal/record"
	"github.com/abelbrown/moyu/internal/report"
	"github.com/abelbrown/moyu/internal/source"
	"github.com/abelbrown/moyu/internal/textstat"
	"github.com/abelbrown/moyu/internal/window"
)

// Stage is how far Run goes.
type Stage int

const (
	StageAggregate Stage = iota // counters and state only
	StageAnalyze                // plus the report dataset
	StageReport                 // plus charts and the HTML report
)

// rowEventLimit caps per-row events so a broken export cannot flood the log.
const rowEventLimit = 1000

// Options configures Run.
type Options struct {
	Config    *config.Config
	Stage     Stage
	Events    *eventlog.Logger   // nil discards events
	Segmenter textstat.Segmenter // nil builds one from Config.Text
	Now       func() time.Time
}

// ChartCounts tallies chart results.
type ChartCounts struct {
	Rendered, Skipped, Failed int
}

// Result is everything a run produced.
type Result struct {
	RunID      string
	Source     source.Stats
	State      *aggregate.State
	Policy     *window.Policy
	Data       *analysis.Dataset
	Images     []chart.Image
	Charts     ChartCounts
	ReportPath string
	Metrics    *metrics.Run
	Events     *eventlog.RingBuffer // latest events of the run
	Recent     []eventlog.Event     // warnings and errors held in Events, oldest first
	Dropped    uint64               // event log lines lost so far
	Elapsed    time.Duration
}

type runner struct {
	cfg     *config.Config
	events  *eventlog.Logger
	ring    *eventlog.RingBuffer
	metrics *metrics.Run
	log     *log.Logger
	now     func() time.Time

	warnEvery  rate.Sometimes
	eventEvery rate.Sometimes

	skippedCharts atomic.Int64
	failedCharts  atomic.Int64
}

// Run executes the pipeline up to opts.Stage.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("app: no config")
	}
	r := &runner{
		cfg:        opts.Config,
		events:     opts.Events,
		ring:       eventlog.NewRingBuffer(eventlog.DefaultRingSize),
		metrics:    metrics.New(),
		log:        logging.WithPrefix("moyu"),
		now:        opts.Now,
		warnEvery:  rate.Sometimes{First: 5, Interval: opts.Config.Log.WarnEach},
		eventEvery: rate.Sometimes{First: rowEventLimit},
	}
	if r.events == nil {
		r.events = eventlog.Discard()
		defer r.events.Close()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.events.SetRingBuffer(r.ring)

	start := r.now()
	res, err := r.run(ctx, opts)
	if err != nil {
		r.events.Error(eventlog.KindRunError, "app", err)
		return nil, err
	}
	res.Elapsed = r.now().Sub(start)
	res.Metrics = r.metrics
	res.RunID = r.events.RunID()

	r.events.Emit(eventlog.Event{Kind: eventlog.KindRunComplete, Comp: "app", Dur: res.Elapsed, Count: res.State.Counters.Active})
	r.events.Sync()
	res.Events = r.ring
	res.Recent = r.ring.Filter("", eventlog.LevelWarn)
	res.Dropped = r.events.Dropped()

	r.metrics.ObserveDroppedEvents(res.Dropped)
	r.metrics.MarkSuccess(r.now())
	if path := r.cfg.Metrics.Textfile; path != "" {
		if err := r.metrics.WriteFile(path); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r *runner) run(ctx context.Context, opts Options) (*Result, error) {
	cfg := r.cfg
	r.events.Emit(eventlog.Event{Kind: eventlog.KindRunStart, Comp: "app", Path: cfg.Input.Path})

	norm := record.NewNormalizer(cfg.Ingest.IdentityCache)
	policy, err := NewPolicy(cfg, norm)
	if err != nil {
		return nil, err
	}
	res := &Result{Policy: policy}

	// Read.
	phase := r.now()
	r.events.Emit(eventlog.Event{Kind: eventlog.KindIngestStart, Comp: "source", Path: cfg.Input.Path})
	recs, stats, err := source.Load(ctx, SourceOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	res.Source = stats
	if stats.Malformed > 0 {
		r.log.Warn("skipped malformed rows", "count", stats.Malformed)
		r.events.Emit(eventlog.Event{Level: eventlog.LevelWarn, Kind: eventlog.KindIngestMalformed, Comp: "source", Count: stats.Malformed})
	}
	r.metrics.ObserveMalformed(stats.Malformed)
	r.metrics.ObservePhase("read", r.now().Sub(phase))
	r.events.Emit(eventlog.Event{Kind: eventlog.KindIngestComplete, Comp: "source", Dur: r.now().Sub(phase), Count: len(recs)})
	r.log.Debug("read input", "rows", stats.Rows, "records", len(recs), "header", stats.Header)

	// Aggregate.
	phase = r.now()
	state, err := aggregate.Build(ctx, recs, aggregate.Options{
		Filter:     NewFilter(cfg),
		Policy:     policy,
		Normalizer: norm,
		OnSkip:     r.skipped,
		Workers:    cfg.Ingest.Workers,
		OnMerge: func(shard, n int) {
			r.events.Emit(eventlog.Event{Level: eventlog.LevelDebug, Kind: eventlog.KindAggregateMerge, Comp: "aggregate", Count: n, Extra: map[string]any{"shard": shard}})
		},
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	res.State = state
	r.metrics.ObserveState(state)
	r.metrics.ObservePhase("aggregate", r.now().Sub(phase))
	r.events.Timed(eventlog.KindAggregateComplete, "aggregate", r.now().Sub(phase), state.Counters.Active)
	if n := state.Counters.TimestampErrors; n > 0 {
		r.log.Warn("skipped records with unparseable timestamps", "count", n)
	}
	if opts.Stage < StageAnalyze {
		return res, nil
	}

	// Analyze.
	phase = r.now()
	seg := opts.Segmenter
	if seg == nil {
		if seg, err = NewSegmenter(cfg); err != nil {
			return nil, err
		}
	}
	res.Data = analysis.Build(state, policy, AnalysisConfig(cfg, norm), seg)
	r.metrics.ObservePhase("analyze", r.now().Sub(phase))
	r.events.Timed(eventlog.KindTextSegment, "textstat", r.now().Sub(phase), len(res.Data.Words.Top))
	if opts.Stage < StageReport {
		return res, nil
	}

	// Charts.
	phase = r.now()
	renderer, err := chart.NewRenderer(cfg.Report.Font)
	if err != nil {
		return nil, err
	}
	res.Images, err = renderer.RenderAll(ctx, res.Data, cfg.Report.ChartWorkers, func(cr chart.Result) {
		r.chartDone(cr)
	})
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	res.Charts = r.chartCounts(res.Images)
	r.metrics.ObservePhase("charts", r.now().Sub(phase))

	// Report.
	phase = r.now()
	res.ReportPath, err = report.WriteDir(cfg.Report.OutputDir, report.Report{
		Title:     cfg.Report.Title,
		Window:    report.DescribeWindow(policy),
		RunID:     r.events.RunID(),
		Generated: r.now(),
		Data:      res.Data,
		Images:    res.Images,
	})
	if err != nil {
		return nil, err
	}
	r.metrics.ObservePhase("report", r.now().Sub(phase))
	r.events.Emit(eventlog.Event{Kind: eventlog.KindReportWrite, Comp: "report", Path: res.ReportPath, Dur: r.now().Sub(phase), Count: len(res.Images)})
	r.log.Info("report written", "path", res.ReportPath, "charts", len(res.Images))
	return res, nil
}

// skipped is the aggregate skip hook. It runs on shard goroutines.
func (r *runner) skipped(rec record.Raw, err error) {
	r.warnEvery.Do(func() {
		r.log.Warn("skipping record", "row", rec.Row, "err", err)
	})
	r.eventEvery.Do(func() {
		r.events.Emit(eventlog.Event{Level: eventlog.LevelWarn, Kind: eventlog.KindIngestTimestamp, Comp: "aggregate", Row: rec.Row, Err: err.Error()})
	})
}

// chartDone runs on chart goroutines.
func (r *runner) chartDone(res chart.Result) {
	switch {
	case res.Err == nil:
		r.metrics.ObserveChart("rendered")
		r.events.Emit(eventlog.Event{Kind: eventlog.KindChartRender, Comp: "chart", Path: res.Name, Dur: res.Duration})
	case res.Skipped():
		r.metrics.ObserveChart("skipped")
		r.skippedCharts.Add(1)
		r.events.Emit(eventlog.Event{Level: eventlog.LevelDebug, Kind: eventlog.KindChartSkip, Comp: "chart", Path: res.Name})
	default:
		r.metrics.ObserveChart("failed")
		r.failedCharts.Add(1)
		r.log.Warn("chart failed", "chart", res.Name, "err", res.Err)
		r.events.Emit(eventlog.Event{Level: eventlog.LevelError, Kind: eventlog.KindChartError, Comp: "chart", Path: res.Name, Err: res.Err.Error()})
	}
}

func (r *runner) chartCounts(images []chart.Image) ChartCounts {
	return ChartCounts{
		Rendered: len(images),
		Skipped:  int(r.skippedCharts.Load()),
		Failed:   int(r.failedCharts.Load()),
	}
}
