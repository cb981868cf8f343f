package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/reqverify/packages/suite"
)

// JUnitTestSuites is the root element. One testsuite is written per run.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Skipped    int              `xml:"skipped,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite holds the scenarios of one run against a base URL.
type JUnitTestSuite struct {
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr,omitempty"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// JUnitTestCase is one scenario. Checks that passed are listed in SystemOut.
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitProblem `xml:"failure,omitempty"`
	Error     *JUnitProblem `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitProblem is the body of a failure or error element.
type JUnitProblem struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitFormatter buffers runs and writes a JUnit XML report on Flush.
type JUnitFormatter struct {
	writer io.Writer
	suites []JUnitTestSuite
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{writer: os.Stdout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

func (f *JUnitFormatter) FormatResult(result *suite.RunResult) {
	ts := JUnitTestSuite{
		Name:      result.BaseURL,
		Tests:     len(result.Results),
		Skipped:   result.Skipped,
		Time:      result.Duration.Seconds(),
		Timestamp: time.Now().Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "baseUrl", Value: result.BaseURL},
			{Name: "latency.p50", Value: result.Latency.P50.String()},
			{Name: "latency.p95", Value: result.Latency.P95.String()},
			{Name: "latency.p99", Value: result.Latency.P99.String()},
		},
	}

	for _, r := range result.Results {
		tc := junitCase(r)
		switch {
		case tc.Error != nil:
			ts.Errors++
		case tc.Failure != nil:
			ts.Failures++
		}
		ts.TestCases = append(ts.TestCases, tc)
	}

	f.suites = append(f.suites, ts)
}

func junitCase(r *suite.Result) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      r.Name,
		ClassName: "reqverify." + r.Name,
		Time:      r.Duration.Seconds(),
	}

	var passed, failed strings.Builder
	for _, c := range r.Checks {
		if c.Passed {
			fmt.Fprintf(&passed, "%s = %s\n", c.Name, c.Actual)
		} else {
			fmt.Fprintf(&failed, "%s: expected %s, got %s\n", c.Name, c.Expected, c.Actual)
		}
	}
	tc.SystemOut = passed.String()

	switch {
	case r.Skipped:
		tc.Skipped = &JUnitSkipped{Message: r.SkipReason}
	case r.Error != nil:
		tc.Error = &JUnitProblem{Message: r.Error.Error(), Type: "ScenarioError", Content: failed.String()}
	case !r.Passed:
		n := len(r.FailedChecks())
		msg := fmt.Sprintf("%d check(s) failed", n)
		if n == 0 {
			msg = "no checks recorded"
		}
		tc.Failure = &JUnitProblem{Message: msg, Type: "CheckFailure", Content: failed.String()}
	}
	return tc
}

// FormatError is a no-op; errors are reported on their test cases.
func (f *JUnitFormatter) FormatError(err error) {}

func (f *JUnitFormatter) FormatHeader(version string) {}

func (f *JUnitFormatter) Flush(totalDuration time.Duration) error {
	root := JUnitTestSuites{
		Name:       "reqverify",
		Time:       totalDuration.Seconds(),
		TestSuites: f.suites,
	}
	for _, ts := range f.suites {
		root.Tests += ts.Tests
		root.Failures += ts.Failures
		root.Errors += ts.Errors
		root.Skipped += ts.Skipped
	}

	if _, err := io.WriteString(f.writer, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(f.writer)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encoding junit report: %w", err)
	}
	_, err := io.WriteString(f.writer, "\n")
	return err
}
