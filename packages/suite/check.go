package suite

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/reqverify/packages/contracts"
)

// Check is a single verified expectation inside a scenario.
type Check struct {
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}

// Recorder collects the checks a scenario makes. Every check is recorded,
// failing ones included, so a scenario reports all mismatches at once.
type Recorder struct {
	checks []Check
}

// Equal records whether actual matches expected. Values are compared by
// their formatted representation so an int64 fixture value equals an int
// field.
func (r *Recorder) Equal(name string, expected, actual any) bool {
	e, a := fmt.Sprint(expected), fmt.Sprint(actual)
	return r.add(Check{Name: name, Expected: e, Actual: a, Passed: e == a})
}

// True records a boolean expectation.
func (r *Recorder) True(name string, actual bool) bool {
	return r.Equal(name, true, actual)
}

// False records a negated boolean expectation.
func (r *Recorder) False(name string, actual bool) bool {
	return r.Equal(name, false, actual)
}

// Contract records whether body satisfies the schema for kind.
func (r *Recorder) Contract(kind contracts.Kind, body []byte) bool {
	check := Check{Name: "contract " + string(kind), Expected: "valid", Actual: "valid", Passed: true}
	if err := contracts.Validate(kind, body); err != nil {
		var schemaErr *contracts.SchemaError
		if errors.As(err, &schemaErr) {
			check.Actual = fmt.Sprintf("%d violation(s)", len(schemaErr.Violations))
		} else {
			check.Actual = err.Error()
		}
		check.Passed = false
	}
	return r.add(check)
}

// Fail records an unconditional failure, typically a response that could
// not be decoded.
func (r *Recorder) Fail(name string, err error) {
	r.add(Check{Name: name, Expected: "no error", Actual: err.Error()})
}

// Checks returns the recorded checks in order.
func (r *Recorder) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

// Passed reports whether every recorded check passed.
func (r *Recorder) Passed() bool {
	for _, c := range r.checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

func (r *Recorder) add(c Check) bool {
	r.checks = append(r.checks, c)
	return c.Passed
}
