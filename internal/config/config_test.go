package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moyu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.Input.Columns.Timestamp)
	assert.Equal(t, 10, cfg.Input.Columns.Identity)
	assert.Equal(t, 7, cfg.Input.Columns.Body)
	assert.Equal(t, "moyu_results", cfg.Report.OutputDir)
	assert.Equal(t, ',', cfg.DelimiterRune())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
input:
  path: export.csv
  columns:
    timestamp: 0
window:
  privileged: [boss, "老板"]
  start_hour: 10
  end_hour: 19
  timezone: Asia/Shanghai
report:
  top_k: 5
log:
  warn_each: 500ms
`)
	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "export.csv", cfg.Input.Path)
	assert.Equal(t, 0, cfg.Input.Columns.Timestamp)
	assert.Equal(t, 10, cfg.Input.Columns.Identity, "unset keys keep their defaults")
	assert.Equal(t, []string{"boss", "老板"}, cfg.Window.Privileged)
	assert.Equal(t, 10, cfg.Window.StartHour)
	assert.Equal(t, 5, cfg.Report.TopK)
	assert.Equal(t, 500*time.Millisecond, cfg.Log.WarnEach)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, cfg.Window.Weekdays)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("MOYU_WINDOW_END_HOUR", "17")
	t.Setenv("MOYU_REPORT_TOP_K", "3")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("top", 10, "")
	require.NoError(t, fs.Parse([]string{"--top", "7"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("report.top_k", fs.Lookup("top")))

	cfg, err := Load(v, writeFile(t, "report:\n  top_k: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 17, cfg.Window.EndHour)
	assert.Equal(t, 7, cfg.Report.TopK, "flags win over env and file")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Window.StartHour)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(viper.New(), writeFile(t, "window:\n  start_hour: 18\n  end_hour: 9\n"))
	assert.ErrorContains(t, err, "window")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative column", func(c *Config) { c.Input.Columns.Body = -1 }},
		{"format", func(c *Config) { c.Input.Format = "xlsx" }},
		{"delimiter", func(c *Config) { c.Input.Delimiter = ";;" }},
		{"hours", func(c *Config) { c.Window.EndHour = 25 }},
		{"no weekdays", func(c *Config) { c.Window.Weekdays = nil }},
		{"weekday range", func(c *Config) { c.Window.Weekdays = []int{7} }},
		{"timezone", func(c *Config) { c.Window.Timezone = "Mars/Olympus" }},
		{"segmenter", func(c *Config) { c.Text.Segmenter = "jieba" }},
		{"top k", func(c *Config) { c.Report.TopK = 0 }},
		{"output dir", func(c *Config) { c.Report.OutputDir = "" }},
		{"workers", func(c *Config) { c.Ingest.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window.Privileged = []string{"boss"}
	cfg.Input.Delimiter = "\t"
	path := filepath.Join(t.TempDir(), "sub", FileName)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"boss"}, loaded.Window.Privileged)
	assert.Equal(t, '\t', loaded.DelimiterRune())

	want, err := cfg.Marshal()
	require.NoError(t, err)
	got, err := loaded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestStopwords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Text.Stopwords = []string{"a"}
	cfg.Text.ExtraStopwords = []string{"b"}
	assert.Equal(t, []string{"a", "b"}, cfg.Stopwords())
}
