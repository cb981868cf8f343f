package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/reqverify/packages/suite"
)

func sampleRun() *suite.RunResult {
	return &suite.RunResult{
		BaseURL: "https://reqres.in",
		Results: []*suite.Result{
			{
				Name:     "get-users-page-1",
				Passed:   true,
				Duration: 12 * time.Millisecond,
				Checks:   []suite.Check{{Name: "page", Expected: "1", Actual: "1", Passed: true}},
			},
			{
				Name:     "get-user-by-id",
				Duration: 8 * time.Millisecond,
				Checks: []suite.Check{
					{Name: "id", Expected: "2", Actual: "2", Passed: true},
					{Name: "email", Expected: "janet.weaver@reqres.in", Actual: "someone@else.in"},
				},
			},
			{
				Name:  "create-user",
				Error: errors.New("scenario create-user: connection refused"),
			},
			{Name: "get-invalid-user", Skipped: true, SkipReason: "bail after failure"},
		},
		Duration: 30 * time.Millisecond,
		Passed:   1,
		Failed:   2,
		Skipped:  1,
		Latency:  suite.Latency{Count: 3, P50: 8 * time.Millisecond, P95: 12 * time.Millisecond, P99: 12 * time.Millisecond, Max: 12 * time.Millisecond},
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatHeader("1.0.0")
	f.FormatResult(sampleRun())

	out := buf.String()
	assert.Contains(t, out, "reqverify 1.0.0")
	assert.Contains(t, out, "Verifying: https://reqres.in")
	assert.Contains(t, out, "✓ get-users-page-1 (12ms)")
	assert.Contains(t, out, "✗ get-user-by-id")
	assert.Contains(t, out, "Expected: janet.weaver@reqres.in")
	assert.Contains(t, out, "Actual:   someone@else.in")
	assert.Contains(t, out, "x create-user (scenario create-user: connection refused)")
	assert.Contains(t, out, "- get-invalid-user (bail after failure)")
	assert.Contains(t, out, "1 passed, 2 failed, 1 skipped, 4 total")
	assert.Contains(t, out, "p50 8ms")
	assert.NotContains(t, out, "· page", "passing checks are hidden unless verbose")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true)).FormatResult(sampleRun())
	assert.Contains(t, buf.String(), "· page = 1")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(30*time.Millisecond))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, JSONSummary{Total: 4, Passed: 1, Failed: 2, Skipped: 1}, out.Summary)
	require.Len(t, out.Tests, 4)
	assert.Equal(t, "https://reqres.in", out.Tests[0].BaseURL)
	assert.Len(t, out.Tests[1].Checks, 2)
	assert.Equal(t, "scenario create-user: connection refused", out.Tests[2].Error)
	assert.Equal(t, "bail after failure", out.Tests[3].SkipReason)
	require.NotNil(t, out.Latency)
	assert.Equal(t, 8.0, out.Latency.P50)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(30*time.Millisecond))

	require.True(t, strings.HasPrefix(buf.String(), xml.Header))
	var out JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes()[len(xml.Header):], &out))

	assert.Equal(t, "reqverify", out.Name)
	assert.Equal(t, 4, out.Tests)
	assert.Equal(t, 1, out.Failures)
	assert.Equal(t, 1, out.Errors)
	assert.Equal(t, 1, out.Skipped)
	require.Len(t, out.TestSuites, 1)
	assert.Contains(t, out.TestSuites[0].Properties, JUnitProperty{Name: "latency.p95", Value: "12ms"})

	cases := out.TestSuites[0].TestCases
	require.Len(t, cases, 4)
	assert.Nil(t, cases[0].Failure)
	assert.Equal(t, "page = 1\n", cases[0].SystemOut)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "1 check(s) failed", cases[1].Failure.Message)
	assert.Contains(t, cases[1].Failure.Content, "email: expected janet.weaver@reqres.in, got someone@else.in")
	assert.NotNil(t, cases[2].Error)
	assert.NotNil(t, cases[3].Skipped)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	f.FormatResult(sampleRun())
	require.NoError(t, f.Flush(0))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "TAP version 13\n1..4\n"))
	assert.Contains(t, out, "ok 1 - get-users-page-1\n")
	assert.Contains(t, out, "not ok 2 - get-user-by-id\n")
	assert.Contains(t, out, "severity: fail")
	assert.Contains(t, out, "- name: email")
	assert.Contains(t, out, "expected: janet.weaver@reqres.in")
	assert.Contains(t, out, "actual: someone@else.in")
	assert.Contains(t, out, "not ok 3 - create-user\n")
	assert.Contains(t, out, "severity: error")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "ok 4 - get-invalid-user # SKIP bail after failure")
	assert.Contains(t, out, "# passed 1, failed 2, skipped 1 in 0ms\n")
}

func TestNew(t *testing.T) {
	for _, format := range append([]string{""}, Formats...) {
		f, err := New(format, &bytes.Buffer{}, false, true)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := New("html", &bytes.Buffer{}, false, true)
	assert.ErrorContains(t, err, "unknown output format")
}
