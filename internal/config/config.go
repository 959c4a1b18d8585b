package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/abelbrown/moyu/internal/filter"
	"github.com/abelbrown/moyu/internal/source"
	"github.com/abelbrown/moyu/internal/textstat"
)

// FileName is the config file searched for when no path is given.
const FileName = "moyu.yaml"

// EnvPrefix prefixes environment overrides, e.g. MOYU_WINDOW_START_HOUR.
const EnvPrefix = "MOYU"

// Config is the full run configuration
type Config struct {
	Input   InputConfig   `mapstructure:"input" yaml:"input"`
	Window  WindowConfig  `mapstructure:"window" yaml:"window"`
	Filter  FilterConfig  `mapstructure:"filter" yaml:"filter"`
	Text    TextConfig    `mapstructure:"text" yaml:"text"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// InputConfig locates the chat export
type InputConfig struct {
	Path      string        `mapstructure:"path" yaml:"path"`
	Format    string        `mapstructure:"format" yaml:"format"` // csv or sqlite; inferred when empty
	Header    bool          `mapstructure:"header" yaml:"header"` // CSV: discard the first row
	Delimiter string        `mapstructure:"delimiter" yaml:"delimiter"`
	Table     string        `mapstructure:"table" yaml:"table"` // SQLite message table
	Columns   ColumnsConfig `mapstructure:"columns" yaml:"columns"`
}

// ColumnsConfig holds zero-based field positions
type ColumnsConfig struct {
	Timestamp int `mapstructure:"timestamp" yaml:"timestamp"`
	Identity  int `mapstructure:"identity" yaml:"identity"`
	Body      int `mapstructure:"body" yaml:"body"`
}

// WindowConfig is the active-window policy
type WindowConfig struct {
	Privileged []string `mapstructure:"privileged" yaml:"privileged"`
	Weekdays   []int    `mapstructure:"weekdays" yaml:"weekdays"` // 0=Monday
	StartHour  int      `mapstructure:"start_hour" yaml:"start_hour"`
	EndHour    int      `mapstructure:"end_hour" yaml:"end_hour"`
	Timezone   string   `mapstructure:"timezone" yaml:"timezone"` // IANA name; empty is local time
}

// FilterConfig tunes the content filter
type FilterConfig struct {
	RetractionMarker string   `mapstructure:"retraction_marker" yaml:"retraction_marker"`
	PayloadKeywords  []string `mapstructure:"payload_keywords" yaml:"payload_keywords"`
}

// TextConfig tunes word counting
type TextConfig struct {
	Segmenter      string   `mapstructure:"segmenter" yaml:"segmenter"` // gse or fields
	Dictionaries   []string `mapstructure:"dictionaries" yaml:"dictionaries"`
	Stopwords      []string `mapstructure:"stopwords" yaml:"stopwords"`
	ExtraStopwords []string `mapstructure:"extra_stopwords" yaml:"extra_stopwords"`
	MinRunes       int      `mapstructure:"min_runes" yaml:"min_runes"`
}

// ReportConfig shapes the output
type ReportConfig struct {
	OutputDir      string   `mapstructure:"output_dir" yaml:"output_dir"`
	Title          string   `mapstructure:"title" yaml:"title"`
	TopK           int      `mapstructure:"top_k" yaml:"top_k"`
	EfficiencyK    int      `mapstructure:"efficiency_k" yaml:"efficiency_k"`
	Focus          []string `mapstructure:"focus" yaml:"focus"`
	FocusCount     int      `mapstructure:"focus_count" yaml:"focus_count"`
	WordLimit      int      `mapstructure:"word_limit" yaml:"word_limit"`
	FocusWordLimit int      `mapstructure:"focus_word_limit" yaml:"focus_word_limit"`
	MaxTicks       int      `mapstructure:"max_ticks" yaml:"max_ticks"`
	Font           string   `mapstructure:"font" yaml:"font"` // TTF with CJK glyphs for chart labels
	ChartWorkers   int      `mapstructure:"chart_workers" yaml:"chart_workers"`
}

// IngestConfig tunes aggregation
type IngestConfig struct {
	Workers       int `mapstructure:"workers" yaml:"workers"` // 0 uses every CPU
	IdentityCache int `mapstructure:"identity_cache" yaml:"identity_cache"`
}

// MetricsConfig controls the Prometheus textfile
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// LogConfig controls diagnostics
type LogConfig struct {
	Level    string        `mapstructure:"level" yaml:"level"`
	File     string        `mapstructure:"file" yaml:"file"`
	Events   string        `mapstructure:"events" yaml:"events"` // JSONL event log
	WarnEach time.Duration `mapstructure:"warn_each" yaml:"warn_each"`
}

// DefaultConfig returns the classic Monday-Friday 9-18 setup for a
// WeChat CSV export
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Header:    true,
			Delimiter: ",",
			Table:     source.DefaultTable,
			Columns: ColumnsConfig{
				Timestamp: source.DefaultColumns.Timestamp,
				Identity:  source.DefaultColumns.Identity,
				Body:      source.DefaultColumns.Body,
			},
		},
		Window: WindowConfig{
			Privileged: []string{},
			Weekdays:   []int{0, 1, 2, 3, 4},
			StartHour:  9,
			EndHour:    18,
		},
		Filter: FilterConfig{
			RetractionMarker: filter.DefaultRetractionMarker,
			PayloadKeywords:  filter.DefaultPayloadKeywords,
		},
		Text: TextConfig{
			Segmenter:      "gse",
			Dictionaries:   []string{},
			Stopwords:      textstat.DefaultStopwords,
			ExtraStopwords: []string{},
			MinRunes:       2,
		},
		Report: ReportConfig{
			OutputDir:      "moyu_results",
			Title:          "Group chat working-hours report",
			TopK:           10,
			EfficiencyK:    10,
			Focus:          []string{},
			FocusCount:     3,
			WordLimit:      20,
			FocusWordLimit: 10,
			MaxTicks:       20,
			ChartWorkers:   4,
		},
		Ingest: IngestConfig{
			IdentityCache: 4096,
		},
		Log: LogConfig{
			Level:    "info",
			Events:   DefaultEventsPath(),
			WarnEach: 2 * time.Second,
		},
	}
}

// DefaultEventsPath is ~/.moyu/events.jsonl
func DefaultEventsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".moyu", "events.jsonl")
	}
	return filepath.Join(home, ".moyu", "events.jsonl")
}

// Load layers defaults, the config file, MOYU_* environment variables and
// any flags already bound on v. With an empty path, moyu.yaml is looked up
// in the working directory and ~/.moyu and is optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	defaults, err := DefaultConfig().Marshal()
	if err != nil {
		return nil, err
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".moyu"))
		}
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	cols := c.Input.Columns
	if cols.Timestamp < 0 || cols.Identity < 0 || cols.Body < 0 {
		return fmt.Errorf("input.columns: indices must be non-negative")
	}
	switch c.Input.Format {
	case "", string(source.FormatCSV), string(source.FormatSQLite):
	default:
		return fmt.Errorf("input.format: unknown format %q", c.Input.Format)
	}
	if c.Input.Delimiter != "" && utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return fmt.Errorf("input.delimiter: want a single character, got %q", c.Input.Delimiter)
	}

	w := c.Window
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return fmt.Errorf("window: invalid hours [%d, %d)", w.StartHour, w.EndHour)
	}
	if len(w.Weekdays) == 0 {
		return fmt.Errorf("window.weekdays: at least one business day is required")
	}
	for _, d := range w.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("window.weekdays: %d is not 0 (Monday) to 6 (Sunday)", d)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Text.Segmenter {
	case "gse", "fields":
	default:
		return fmt.Errorf("text.segmenter: want gse or fields, got %q", c.Text.Segmenter)
	}
	if c.Report.TopK <= 0 {
		return fmt.Errorf("report.top_k: must be positive")
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("report.output_dir: required")
	}
	if c.Ingest.Workers < 0 {
		return fmt.Errorf("ingest.workers: must not be negative")
	}
	return nil
}

// Location resolves window.timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Window.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Window.Timezone)
	if err != nil {
		return nil, fmt.Errorf("window.timezone: %w", err)
	}
	return loc, nil
}

// DelimiterRune returns the CSV separator, ',' by default
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// Stopwords merges the base and extra lists
func (c *Config) Stopwords() []string {
	out := make([]string, 0, len(c.Text.Stopwords)+len(c.Text.ExtraStopwords))
	out = append(out, c.Text.Stopwords...)
	return append(out, c.Text.ExtraStopwords...)
}

// Marshal renders the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the config to path, creating parent directories
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
