package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/reqverify/packages/suite"
)

// TAPFormatter writes TAP version 13. Each failed scenario carries a YAML
// diagnostic block with its failed checks.
type TAPFormatter struct {
	writer  io.Writer
	results []*suite.Result
	summary suite.RunResult
}

// tapDiagnostic is the YAML block following a "not ok" line.
type tapDiagnostic struct {
	Severity   string     `yaml:"severity"`
	Message    string     `yaml:"message,omitempty"`
	DurationMS int64      `yaml:"duration_ms"`
	Checks     []tapCheck `yaml:"checks,omitempty"`
}

type tapCheck struct {
	Name     string `yaml:"name"`
	Expected string `yaml:"expected"`
	Actual   string `yaml:"actual"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *suite.RunResult) {
	f.results = append(f.results, result.Results...)
	f.summary.Passed += result.Passed
	f.summary.Failed += result.Failed
	f.summary.Skipped += result.Skipped
}

// FormatError is a no-op; scenario errors are reported in their diagnostics.
func (f *TAPFormatter) FormatError(err error) {}

func (f *TAPFormatter) FormatHeader(version string) {}

// Flush writes the plan, one line per scenario and a closing summary comment.
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	var b strings.Builder
	fmt.Fprintf(&b, "TAP version 13\n1..%d\n", len(f.results))

	for i, r := range f.results {
		n := i + 1
		switch {
		case r.Skipped:
			reason := r.SkipReason
			if reason == "filtered out" {
				reason = ""
			}
			fmt.Fprintf(&b, "ok %d - %s # SKIP %s\n", n, r.Name, reason)
		case r.Passed:
			fmt.Fprintf(&b, "ok %d - %s\n", n, r.Name)
		default:
			fmt.Fprintf(&b, "not ok %d - %s\n", n, r.Name)
			block, err := diagnosticFor(r)
			if err != nil {
				return fmt.Errorf("tap diagnostic for %s: %w", r.Name, err)
			}
			b.WriteString(block)
		}
	}

	fmt.Fprintf(&b, "# passed %d, failed %d, skipped %d in %dms\n",
		f.summary.Passed, f.summary.Failed, f.summary.Skipped, totalDuration.Milliseconds())

	_, err := io.WriteString(f.writer, b.String())
	return err
}

func diagnosticFor(r *suite.Result) (string, error) {
	d := tapDiagnostic{Severity: "fail", DurationMS: r.Duration.Milliseconds()}
	if r.Error != nil {
		d.Severity = "error"
		d.Message = r.Error.Error()
	}
	for _, c := range r.FailedChecks() {
		d.Checks = append(d.Checks, tapCheck{Name: c.Name, Expected: c.Expected, Actual: c.Actual})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("  ---\n")
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("  ...\n")
	return b.String(), nil
}
