package app

import (
	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/config"
	"github.com/abelbrown/moyu/internal/filter"
	"github.com/abelbrown/moyu/internal/record"
	"github.com/abelbrown/moyu/internal/source"
	"github.com/abelbrown/moyu/internal/textstat"
	"github.com/abelbrown/moyu/internal/window"
)

// NewPolicy builds the active-window policy. Privileged names are
// normalized the same way record identities are, so a configured
// "老板🐟" still matches the stored "老板".
// Timestamp failures are reported by the aggregate skip hook, not here.
func NewPolicy(cfg *config.Config, norm *record.Normalizer) (*window.Policy, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return window.New(window.Options{
		Privileged: norm.NormalizeAll(cfg.Window.Privileged),
		Weekdays:   cfg.Window.Weekdays,
		StartHour:  cfg.Window.StartHour,
		EndHour:    cfg.Window.EndHour,
		Location:   loc,
	})
}

func NewFilter(cfg *config.Config) *filter.Filter {
	return filter.New(cfg.Filter.RetractionMarker, cfg.Filter.PayloadKeywords)
}

func SourceOptions(cfg *config.Config) source.Options {
	in := cfg.Input
	return source.Options{
		Path:   in.Path,
		Format: source.Format(in.Format),
		Columns: source.Columns{
			Timestamp: in.Columns.Timestamp,
			Identity:  in.Columns.Identity,
			Body:      in.Columns.Body,
		},
		HasHeader: in.Header,
		Delimiter: cfg.DelimiterRune(),
		Table:     in.Table,
	}
}

// NewSegmenter returns the configured word segmenter. Loading the gse
// dictionary takes a moment, so callers reuse the result.
func NewSegmenter(cfg *config.Config) (textstat.Segmenter, error) {
	if cfg.Text.Segmenter == "fields" {
		return textstat.Fields{}, nil
	}
	return textstat.NewGSE(cfg.Text.Dictionaries...)
}

func AnalysisConfig(cfg *config.Config, norm *record.Normalizer) analysis.Config {
	ac := analysis.DefaultConfig()
	r := cfg.Report
	ac.TopK = r.TopK
	if r.EfficiencyK > 0 {
		ac.EfficiencyK = r.EfficiencyK
	}
	ac.Focus = norm.NormalizeAll(r.Focus)
	if r.FocusCount > 0 {
		ac.FocusCount = r.FocusCount
	}
	if r.WordLimit > 0 {
		ac.WordLimit = r.WordLimit
	}
	if r.FocusWordLimit > 0 {
		ac.FocusWordLimit = r.FocusWordLimit
	}
	if r.MaxTicks > 0 {
		ac.MaxTicks = r.MaxTicks
	}
	ac.Stopwords = cfg.Stopwords()
	if cfg.Text.MinRunes > 0 {
		ac.MinRunes = cfg.Text.MinRunes
	}
	return ac
}
