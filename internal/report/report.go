// Package report writes the HTML report and chart files for a run.
package report

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abelbrown/moyu/internal/analysis"
	"github.com/abelbrown/moyu/internal/chart"
	"github.com/abelbrown/moyu/internal/window"
)

// FileName is the report written into the output directory.
const FileName = "moyu_report.html"

//go:embed templates/report.html.tmpl
var templates embed.FS

var page = template.Must(template.New("report.html.tmpl").Funcs(template.FuncMap{
	"dataURI":  dataURI,
	"f2":       func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"inc":      func(i int) int { return i + 1 },
	"heat":     heat,
	"fontSize": func(px float64) template.CSS { return template.CSS(fmt.Sprintf("font-size: %.0fpx", px)) },
}).ParseFS(templates, "templates/report.html.tmpl"))

// Report is everything one page shows.
type Report struct {
	Title     string
	Window    string
	RunID     string
	Generated time.Time
	Data      *analysis.Dataset
	Images    []chart.Image
}

// Chart returns the named image, or nil if it was not rendered.
func (r Report) Chart(name string) *chart.Image {
	for i := range r.Images {
		if r.Images[i].Name == name {
			return &r.Images[i]
		}
	}
	return nil
}

// Render writes the HTML page to w.
func Render(w io.Writer, r Report) error {
	if r.Data == nil {
		return fmt.Errorf("report has no data")
	}
	if r.Title == "" {
		r.Title = "Group chat working-hours report"
	}
	return page.Execute(w, r)
}

// WriteDir writes the page and each chart as a PNG into dir, creating it
// if needed. It returns the path of the HTML file.
func WriteDir(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	for _, img := range r.Images {
		p := filepath.Join(dir, img.Name+".png")
		if err := os.WriteFile(p, img.PNG, 0644); err != nil {
			return "", fmt.Errorf("write %s: %w", p, err)
		}
	}
	return path, nil
}

// DescribeWindow renders a policy as e.g. "Mon-Fri 09:00-18:00 (Asia/Shanghai)".
func DescribeWindow(p *window.Policy) string {
	days := p.Weekdays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = window.WeekdayNames[d]
	}
	span := strings.Join(names, ",")
	if n := len(days); n > 2 && days[n-1]-days[0] == n-1 {
		span = names[0] + "-" + names[n-1]
	}
	hours := p.Hours()
	return fmt.Sprintf("%s %s-%s (%s)", span,
		analysis.HourLabel(hours[0]), analysis.HourLabel(hours[len(hours)-1]+1), p.Location())
}

func dataURI(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// heat shades a heatmap cell by its share of the busiest cell.
func heat(n, peak int) template.CSS {
	alpha := 0.0
	if peak > 0 {
		alpha = float64(n) / float64(peak)
	}
	return template.CSS(fmt.Sprintf("background-color: rgba(231, 76, 60, %.2f)", alpha))
}
