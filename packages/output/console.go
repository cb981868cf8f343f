package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/reqverify/packages/suite"
)

const maxValueWidth = 100

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
	palette palette
}

type palette struct {
	green, red, yellow, cyan, bold func(a ...any) string
}

func newPalette(noColor bool) palette {
	paint := func(attr color.Attribute) func(a ...any) string {
		c := color.New(attr)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		green:  paint(color.FgGreen),
		red:    paint(color.FgRed),
		yellow: paint(color.FgYellow),
		cyan:   paint(color.FgCyan),
		bold:   paint(color.Bold),
	}
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	f.palette = newPalette(f.noColor)
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose also lists passing checks.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *suite.RunResult) {
	fmt.Fprintf(f.writer, "\n%s\n\n", f.palette.bold("Verifying: "+result.BaseURL))
	for _, r := range result.Results {
		f.writeScenario(r)
	}
	f.writeSummary(result)
}

func (f *ConsoleFormatter) writeScenario(r *suite.Result) {
	p := f.palette
	switch {
	case r.Skipped:
		line := "  " + p.yellow("-") + " " + r.Name
		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			line += " (" + r.SkipReason + ")"
		}
		fmt.Fprintln(f.writer, line)
		return
	case r.Error != nil:
		fmt.Fprintf(f.writer, "  %s %s %s\n", p.red("x"), r.Name, p.red("("+r.Error.Error()+")"))
		return
	}

	symbol := p.green("✓")
	if !r.Passed {
		symbol = p.red("✗")
	}
	fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, r.Name, p.cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

	for _, c := range r.Checks {
		switch {
		case !c.Passed:
			fmt.Fprintf(f.writer, "    %s %s\n", p.red("→"), c.Name)
			fmt.Fprintf(f.writer, "      Expected: %s\n", clip(c.Expected))
			fmt.Fprintf(f.writer, "      Actual:   %s\n", clip(c.Actual))
		case f.verbose:
			fmt.Fprintf(f.writer, "    %s %s = %s\n", p.green("·"), c.Name, clip(c.Actual))
		}
	}
}

func (f *ConsoleFormatter) writeSummary(result *suite.RunResult) {
	p := f.palette
	var parts []string
	if result.Passed > 0 {
		parts = append(parts, p.green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		parts = append(parts, p.red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		parts = append(parts, p.yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	parts = append(parts, fmt.Sprintf("%d total", len(result.Results)))

	fmt.Fprintf(f.writer, "\nScenarios: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(f.writer, "Time:      %dms\n", result.Duration.Milliseconds())
	if l := result.Latency; l.Count > 0 {
		fmt.Fprintf(f.writer, "Latency:   p50 %s  p95 %s  p99 %s  max %s\n", l.P50, l.P95, l.P99, l.Max)
	}
	fmt.Fprintln(f.writer)
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "%s %v\n", f.palette.red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	fmt.Fprintf(f.writer, "%s %s\n", f.palette.bold("reqverify"), version)
}

// clip shortens long check values without splitting a rune.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxValueWidth {
		return s
	}
	return string([]rune(s)[:maxValueWidth]) + "..."
}
