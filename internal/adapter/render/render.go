// Package render turns merged results into their presentation forms: a plain
// serializable view for JSON/YAML transports and a severity-prefixed text
// listing for terminals.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/guillermoBallester/schemadvisor/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// MessageView is the serializable form of a message. Error causes are
// folded into Text here and nowhere earlier.
type MessageView struct {
	Text string `json:"text" yaml:"text"`
	Type string `json:"type" yaml:"type"`
}

// ResultView is the serializable form of a merged result.
type ResultView struct {
	Title    string        `json:"title" yaml:"title"`
	Messages []MessageView `json:"messages" yaml:"messages"`
}

// View converts results to their serializable form. It never returns nil.
func View(results []domain.Result) []ResultView {
	out := make([]ResultView, 0, len(results))
	for _, r := range results {
		msgs := make([]MessageView, 0, len(r.Messages))
		for _, m := range r.Messages {
			msgs = append(msgs, MessageView{Text: m.String(), Type: string(m.Severity)})
		}
		out = append(out, ResultView{Title: r.Title, Messages: msgs})
	}
	return out
}

// JSON writes the indented serializable form.
func JSON(w io.Writer, results []domain.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(View(results)); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}

// YAML writes the serializable form as a YAML document.
func YAML(w io.Writer, results []domain.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(View(results)); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return enc.Close()
}

// Printer writes the display form.
type Printer struct {
	w       io.Writer
	title   *color.Color
	info    *color.Color
	warning *color.Color
	errs    *color.Color
}

// NewPrinter returns a Printer writing to w. With useColor false the output
// carries no escape sequences.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:       w,
		title:   color.New(color.Bold),
		info:    color.New(color.FgCyan),
		warning: color.New(color.FgYellow, color.Bold),
		errs:    color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.title, p.info, p.warning, p.errs} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Results prints each result as its title followed by one prefixed line per
// message, with a blank line between results.
func (p *Printer) Results(results []domain.Result) error {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.title.Sprint(r.Title))
		b.WriteString("\n")
		for _, m := range r.Messages {
			b.WriteString(p.prefix(m.Severity))
			b.WriteString(" ")
			b.WriteString(m.String())
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Summary prints the one-line severity tally of a report.
func (p *Printer) Summary(report *domain.Report) error {
	info, warnings, errs := report.Summary()
	_, err := fmt.Fprintf(p.w, "\n%d tables, %d rule runs in %s: %s, %s, %s\n",
		len(report.Targets), report.Invocations, report.Duration.Round(time.Millisecond),
		p.info.Sprintf("%d info", info),
		p.warning.Sprintf("%d warnings", warnings),
		p.errs.Sprintf("%d errors", errs),
	)
	return err
}

func (p *Printer) prefix(sev domain.Severity) string {
	switch sev {
	case domain.SeverityWarning:
		return p.warning.Sprint("[WARNING]")
	case domain.SeverityError:
		return p.errs.Sprint("[ERROR]")
	default:
		return p.info.Sprint("[INFO]")
	}
}
