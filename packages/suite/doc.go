// Package suite runs named verification scenarios against a users API.
//
// A Scenario issues requests through packages/http, decodes the responses
// into packages/contracts shapes and records every expectation as a Check.
// The Runner executes scenarios one after another, optionally rate limited,
// and aggregates pass/fail counts and latency percentiles:
//
//	tree, _ := fixture.Load("testdata/UserDetails.json")
//	runner := suite.NewRunner(&suite.Config{BaseURL: "https://reqres.in"}, tree)
//	result, err := runner.Run(ctx)
package suite
