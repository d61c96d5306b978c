package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/speech-trainer/internal/progress"
	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/audio/voice/extractors"
)

// Formatter renders command output
type Formatter interface {
	Format(data any, pretty bool) ([]byte, error)
}

// JSONFormatter renders JSON
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, pretty bool) ([]byte, error) {
	if pretty {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// YAMLFormatter renders YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, pretty bool) ([]byte, error) {
	return yaml.Marshal(data)
}

// TableSection is one titled table of a tabular report
type TableSection struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Tabular is implemented by outputs with a table rendering
type Tabular interface {
	Sections(precision int) []TableSection
}

// TableFormatter renders Tabular values as aligned text tables and falls
// back to YAML for anything else
type TableFormatter struct {
	Precision int
}

func (f *TableFormatter) Format(data any, pretty bool) ([]byte, error) {
	tab, ok := data.(Tabular)
	if !ok {
		return (&YAMLFormatter{}).Format(data, pretty)
	}

	var buf bytes.Buffer
	for i, section := range tab.Sections(f.Precision) {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if section.Title != "" {
			fmt.Fprintf(&buf, "%s\n%s\n", section.Title, strings.Repeat("-", len(section.Title)))
		}

		w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		if len(section.Header) > 0 {
			fmt.Fprintln(w, strings.Join(section.Header, "\t"))
		}
		for _, row := range section.Rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		if err := w.Flush(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// newFormatter selects a formatter by name, defaulting to JSON
func newFormatter(format string, precision int) Formatter {
	switch format {
	case "yaml":
		return &YAMLFormatter{}
	case "table":
		return &TableFormatter{Precision: precision}
	default:
		return &JSONFormatter{}
	}
}

// SessionSummary describes a training session without its attempts
type SessionSummary struct {
	ID              string    `json:"id" yaml:"id"`
	Topic           string    `json:"topic" yaml:"topic"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	ExpiresAt       time.Time `json:"expires_at" yaml:"expires_at"`
}

// AttemptOutput is one scored recording, or the reason it was not scored
type AttemptOutput struct {
	File   string          `json:"file" yaml:"file"`
	Result *trainer.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// TrainingOutput is the result of a training run
type TrainingOutput struct {
	Session   SessionSummary   `json:"session" yaml:"session"`
	Attempts  []AttemptOutput  `json:"attempts" yaml:"attempts"`
	Progress  *progress.Report `json:"progress" yaml:"progress"`
	Timestamp *time.Time       `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	numbered bool
}

func (o *TrainingOutput) Sections(precision int) []TableSection {
	attempts := TableSection{
		Title:  fmt.Sprintf("SESSION %s (%s, %d min)", o.Session.ID, o.Session.Topic, o.Session.DurationMinutes),
		Header: []string{"#", "FILE", "RAW", "SCORE", "ADVICE"},
	}
	for i, a := range o.Attempts {
		if a.Result == nil {
			attempts.Rows = append(attempts.Rows, []string{fmt.Sprint(i + 1), a.File, "-", "-", "error: " + a.Error})
			continue
		}
		text := a.Result.Advice.Text
		if o.numbered && len(a.Result.Advice.Clauses) > 1 {
			text = a.Result.Advice.Numbered()
		}
		attempts.Rows = append(attempts.Rows, []string{
			fmt.Sprint(a.Result.Attempt),
			a.File,
			formatFloat(a.Result.RawScore, precision),
			formatFloat(a.Result.Score, precision),
			strings.ReplaceAll(text, "\n", " "),
		})
	}

	sections := []TableSection{attempts}
	if o.Progress == nil {
		return sections
	}

	report := o.Progress
	sections = append(sections, TableSection{
		Title: "PROGRESS",
		Rows: [][]string{
			{"Attempts", fmt.Sprint(report.Attempts)},
			{"Latest", formatFloat(report.Latest, precision)},
			{"Best", formatFloat(report.Best, precision)},
			{"Worst", formatFloat(report.Worst, precision)},
			{"Mean", formatFloat(report.Scores.Mean, precision)},
			{"Trend per attempt", formatFloat(report.TrendPerAttempt, precision)},
			{"Improvement", formatFloat(report.Improvement, precision)},
			{"Compliment rate", formatFloat(100*report.ComplimentRate, 0) + "%"},
		},
	})

	insights := TableSection{Title: "INSIGHTS"}
	for _, insight := range report.Insights {
		insights.Rows = append(insights.Rows, []string{"- " + insight})
	}
	return append(sections, insights)
}

// FeatureOutput holds the features of one recording
type FeatureOutput struct {
	File     string                   `json:"file" yaml:"file"`
	Duration float64                  `json:"duration_seconds" yaml:"duration_seconds"`
	Features extractors.FeatureVector `json:"features,omitempty" yaml:"features,omitempty"`
	Error    string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// FeaturesOutput is the result of a feature extraction run
type FeaturesOutput struct {
	Files     []FeatureOutput `json:"files" yaml:"files"`
	Timestamp *time.Time      `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func (o *FeaturesOutput) Sections(precision int) []TableSection {
	var sections []TableSection
	for _, f := range o.Files {
		section := TableSection{Title: f.File, Header: []string{"FEATURE", "VALUE"}}
		if f.Error != "" {
			section.Header = nil
			section.Rows = [][]string{{"error: " + f.Error}}
			sections = append(sections, section)
			continue
		}
		for _, name := range orderedFeatureNames(f.Features) {
			section.Rows = append(section.Rows, []string{name, formatFloat(f.Features[name], precision)})
		}
		sections = append(sections, section)
	}
	return sections
}

// orderedFeatureNames lists schema fields first, then the rest alphabetically
func orderedFeatureNames(fv extractors.FeatureVector) []string {
	names := make([]string, 0, len(fv))
	seen := make(map[string]bool, len(fv))
	for _, name := range extractors.DefaultSchema {
		if _, ok := fv[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range fv {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func formatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}
