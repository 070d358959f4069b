package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Formatter renders run progress.
type Formatter interface {
	Format(event Event, stats *Stats) error
	Summary(stats *Stats) error
}

// FormatHandler is a Handler that delegates to a Formatter. The summary is
// rendered when the run ends.
type FormatHandler struct {
	formatter Formatter
	stderr    io.Writer
}

// NewFormatHandler creates a handler that formats events.
func NewFormatHandler(f Formatter, stderr io.Writer) *FormatHandler {
	return &FormatHandler{formatter: f, stderr: stderr}
}

// Event formats the event.
func (h *FormatHandler) Event(_ context.Context, event Event, stats *Stats) error {
	if err := h.formatter.Format(event, stats); err != nil {
		return err
	}

	if event.Action == ActionEnd {
		return h.formatter.Summary(stats)
	}

	return nil
}

// Err writes to stderr.
func (h *FormatHandler) Err(text string) error {
	_, err := h.stderr.Write([]byte(text + "\n"))

	return err
}

// Styles for progress output.
type Styles struct {
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Pending lipgloss.Style
	Suite   lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles creates styles rendering to w. Colors are dropped when w is not
// a terminal.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)

	return &Styles{
		Pass:    r.NewStyle().Foreground(lipgloss.Color("#00BA7C")),
		Fail:    r.NewStyle().Foreground(lipgloss.Color("#F4212E")).Bold(true),
		Pending: r.NewStyle().Foreground(lipgloss.Color("#1D9BF0")),
		Suite:   r.NewStyle().Bold(true),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("#8899A6")),
	}
}

// failure is a failed test or hook remembered for the summary.
type failure struct {
	path string
	err  any
}

func describeFailure(event Event) failure {
	path := event.PathString()
	if event.Hook != nil && event.Hook.Parent != nil && event.Hook.Parent.Root {
		path = event.Hook.Title
	}

	return failure{path: path, err: event.Error}
}

func writeFailures(w io.Writer, styles *Styles, failures []failure) {
	for i, f := range failures {
		_, _ = fmt.Fprintf(w, "  %d) %s\n", i+1, styles.Fail.Render(f.path))
		_, _ = fmt.Fprintf(w, "     %v\n\n", f.err)
	}
}

func writeCounts(w io.Writer, styles *Styles, stats *Stats) {
	elapsed := stats.Elapsed().Round(time.Millisecond)

	_, _ = fmt.Fprintf(w, "  %s %s\n", styles.Pass.Render(fmt.Sprintf("%d passing", stats.Passes)), styles.Dim.Render("("+elapsed.String()+")"))

	if stats.Pending > 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", styles.Pending.Render(fmt.Sprintf("%d pending", stats.Pending)))
	}

	if stats.Failures > 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", styles.Fail.Render(fmt.Sprintf("%d failing", stats.Failures)))
	}
}

// -----------------------------------------------------------------------------
// Dots Formatter
// -----------------------------------------------------------------------------

// DotsFormatter is a minimal formatter that prints dots for progress.
type DotsFormatter struct {
	w        io.Writer
	styles   *Styles
	count    int
	failures []failure
}

// NewDotsFormatter creates a dots formatter.
func NewDotsFormatter(w io.Writer) *DotsFormatter {
	return &DotsFormatter{w: w, styles: NewStyles(w)}
}

const lineWidth = 80

// Format prints a single character per terminal event.
func (d *DotsFormatter) Format(event Event, _ *Stats) error {
	if !event.Action.IsTerminal() {
		return nil
	}

	var char string

	switch event.Action {
	case ActionPass:
		char = d.styles.Pass.Render(".")
	case ActionFail:
		char = d.styles.Fail.Render("F")
		d.failures = append(d.failures, describeFailure(event))
	case ActionPending:
		char = d.styles.Pending.Render(",")
	case ActionStart, ActionSuite, ActionSuiteEnd, ActionTest, ActionRetry, ActionTestEnd, ActionEnd:
		return nil
	}

	_, err := fmt.Fprint(d.w, char)
	d.count++

	if d.count%lineWidth == 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	return err
}

// Summary prints the final results.
func (d *DotsFormatter) Summary(stats *Stats) error {
	if d.count > 0 && d.count%lineWidth != 0 {
		_, _ = fmt.Fprintln(d.w)
	}

	_, _ = fmt.Fprintln(d.w)

	writeCounts(d.w, d.styles, stats)

	if len(d.failures) > 0 {
		_, _ = fmt.Fprintln(d.w)
		writeFailures(d.w, d.styles, d.failures)
	}

	return nil
}

// -----------------------------------------------------------------------------
// Verbose Formatter
// -----------------------------------------------------------------------------

// VerboseFormatter prints the suite tree as it runs.
type VerboseFormatter struct {
	w        io.Writer
	styles   *Styles
	failures []failure
}

// NewVerboseFormatter creates a verbose formatter.
func NewVerboseFormatter(w io.Writer) *VerboseFormatter {
	return &VerboseFormatter{w: w, styles: NewStyles(w)}
}

// Format prints each event as it occurs.
func (v *VerboseFormatter) Format(event Event, _ *Stats) error {
	indent := strings.Repeat("  ", len(event.Path))

	switch event.Action {
	case ActionSuite:
		if event.Suite != nil && !event.Suite.Root {
			_, _ = fmt.Fprintf(v.w, "%s%s\n", indent[2:], v.styles.Suite.Render(event.Suite.Title))
		}
	case ActionPass:
		_, _ = fmt.Fprintf(v.w, "%s%s %s", indent, v.styles.Pass.Render("✓"), event.TestName())

		if event.Test != nil && event.Test.Speed != SpeedFast {
			_, _ = fmt.Fprintf(v.w, " %s", v.styles.Dim.Render("("+event.Elapsed.Round(time.Millisecond).String()+")"))
		}

		_, _ = fmt.Fprintln(v.w)
	case ActionFail:
		v.failures = append(v.failures, describeFailure(event))
		_, _ = fmt.Fprintf(v.w, "%s%s\n", indent, v.styles.Fail.Render(fmt.Sprintf("%d) %s", len(v.failures), event.TestName())))
	case ActionPending:
		_, _ = fmt.Fprintf(v.w, "%s%s\n", indent, v.styles.Pending.Render("- "+event.TestName()))
	case ActionRetry:
		_, _ = fmt.Fprintf(v.w, "%s%s\n", indent, v.styles.Dim.Render("↻ "+event.TestName()))
	case ActionStart, ActionSuiteEnd, ActionTest, ActionTestEnd, ActionEnd:
	}

	return nil
}

// Summary prints the final results.
func (v *VerboseFormatter) Summary(stats *Stats) error {
	_, _ = fmt.Fprintln(v.w)

	writeCounts(v.w, v.styles, stats)

	if len(v.failures) > 0 {
		_, _ = fmt.Fprintln(v.w)
		writeFailures(v.w, v.styles, v.failures)
	}

	return nil
}

// -----------------------------------------------------------------------------
// JSON Formatter
// -----------------------------------------------------------------------------

// JSONFormatter outputs newline-delimited JSON events.
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{enc: json.NewEncoder(w)}
}

type jsonEvent struct {
	Time    string  `json:"time"`
	Action  string  `json:"action"`
	File    string  `json:"file,omitempty"`
	Path    string  `json:"path"`
	Test    string  `json:"test,omitempty"`
	Elapsed float64 `json:"elapsed,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Format outputs a JSON event for every action except the run boundaries.
func (j *JSONFormatter) Format(event Event, _ *Stats) error {
	if event.Action == ActionStart || event.Action == ActionEnd {
		return nil
	}

	je := jsonEvent{
		Time:   event.Time.Format(time.RFC3339Nano),
		Action: string(event.Action),
		Path:   event.PathString(),
	}

	switch {
	case event.Test != nil:
		je.File = event.Test.File
		je.Test = event.TestName()
	case event.Hook != nil:
		je.File = event.Hook.File
	case event.Suite != nil:
		je.File = event.Suite.File
	}

	if event.Action.IsTerminal() {
		je.Elapsed = event.Elapsed.Seconds()
	}

	if event.Error != nil {
		je.Error = fmt.Sprint(event.Error)
	}

	return j.enc.Encode(je)
}

type jsonSummary struct {
	Action   string  `json:"action"`
	Suites   int     `json:"suites"`
	Tests    int     `json:"tests"`
	Passes   int     `json:"passes"`
	Pending  int     `json:"pending"`
	Failures int     `json:"failures"`
	Elapsed  float64 `json:"elapsed"`
	Ok       bool    `json:"ok"`
}

// Summary outputs the final JSON summary.
func (j *JSONFormatter) Summary(stats *Stats) error {
	return j.enc.Encode(jsonSummary{
		Action:   "summary",
		Suites:   stats.Suites,
		Tests:    stats.Tests,
		Passes:   stats.Passes,
		Pending:  stats.Pending,
		Failures: stats.Failures,
		Elapsed:  stats.Elapsed().Seconds(),
		Ok:       stats.Ok(),
	})
}

// NewFormatter creates a formatter by name. Unknown names fall back to dots.
func NewFormatter(name string, w io.Writer) Formatter {
	switch name {
	case "verbose":
		return NewVerboseFormatter(w)
	case "json":
		return NewJSONFormatter(w)
	default:
		return NewDotsFormatter(w)
	}
}
