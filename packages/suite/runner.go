package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/reqverify/packages/fixture"
	"github.com/abdul-hamid-achik/reqverify/packages/http"
)

// RunFunc executes a scenario, recording its checks on rec. A returned error
// means the scenario could not complete, as opposed to a failed check.
type RunFunc func(ctx context.Context, env *Env, rec *Recorder) error

// Scenario is one named verification against the API.
type Scenario struct {
	Name        string
	Description string
	Run         RunFunc
}

// Env is what a scenario runs against. Each scenario gets its own client,
// closed once the scenario returns.
type Env struct {
	Client   *http.Client
	Fixtures *fixture.Tree
	Logger   zerolog.Logger
}

type Config struct {
	BaseURL       string
	ClientOptions []http.ClientOption
	// NameFilter selects scenarios by glob (doublestar syntax, e.g. "get-{user,users}-*") or substring.
	NameFilter string
	Bail       bool
	// Rate caps scenarios started per second. Zero means unlimited.
	Rate float64
}

// Result is the outcome of one scenario.
type Result struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Passed      bool          `json:"passed"`
	Skipped     bool          `json:"skipped,omitempty"`
	SkipReason  string        `json:"skipReason,omitempty"`
	Duration    time.Duration `json:"duration"`
	Checks      []Check       `json:"checks,omitempty"`
	Error       error         `json:"-"`
}

// FailedChecks returns the checks that did not pass.
func (r *Result) FailedChecks() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// RunResult aggregates a whole run.
type RunResult struct {
	BaseURL  string        `json:"baseUrl"`
	Results  []*Result     `json:"results"`
	Duration time.Duration `json:"duration"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Skipped  int           `json:"skipped"`
	Latency  Latency       `json:"latency"`
}

// Success reports whether no scenario failed.
func (r *RunResult) Success() bool {
	return r.Failed == 0
}

type Runner struct {
	config    *Config
	scenarios []Scenario
	fixtures  *fixture.Tree
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// RunnerOption is a functional option for Runner
type RunnerOption func(*Runner)

// WithScenarios replaces the default users scenarios.
func WithScenarios(scenarios ...Scenario) RunnerOption {
	return func(r *Runner) {
		r.scenarios = scenarios
	}
}

// WithLogger sets the logger handed to scenarios and used for progress.
func WithLogger(logger zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(cfg *Config, fixtures *fixture.Tree, opts ...RunnerOption) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runner{
		config:    cfg,
		scenarios: UsersScenarios(),
		fixtures:  fixtures,
		logger:    zerolog.Nop(),
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scenarios returns the scenarios the runner knows about, filtered or not.
func (r *Runner) Scenarios() []Scenario {
	return r.scenarios
}

// Run executes the scenarios sequentially. The returned error is non-nil only
// when ctx ends the run early; the partial result is still returned.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{BaseURL: r.config.BaseURL}
	latency := newLatencyRecorder()

	bailed := false
	var runErr error
	for _, sc := range r.scenarios {
		if !r.shouldRun(sc) {
			result.Results = append(result.Results, skipped(sc, "filtered out"))
			result.Skipped++
			continue
		}
		if bailed || runErr != nil {
			reason := "bail after failure"
			if runErr != nil {
				reason = "run cancelled"
			}
			result.Results = append(result.Results, skipped(sc, reason))
			result.Skipped++
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				runErr = err
				result.Results = append(result.Results, skipped(sc, "run cancelled"))
				result.Skipped++
				continue
			}
		}

		res := r.runScenario(ctx, sc)
		result.Results = append(result.Results, res)
		latency.record(res.Duration)

		if res.Passed {
			result.Passed++
		} else {
			result.Failed++
			if r.config.Bail {
				bailed = true
			}
		}

		if ctx.Err() != nil {
			runErr = ctx.Err()
		}
	}

	result.Duration = time.Since(start)
	result.Latency = latency.summary()
	return result, runErr
}

func (r *Runner) runScenario(ctx context.Context, sc Scenario) *Result {
	start := time.Now()
	res := &Result{Name: sc.Name, Description: sc.Description}

	client, err := http.NewClient(r.config.BaseURL, r.clientOptions()...)
	if err != nil {
		res.Error = err
		res.Duration = time.Since(start)
		return res
	}
	defer client.Close()

	rec := &Recorder{}
	env := &Env{Client: client, Fixtures: r.fixtures, Logger: r.logger.With().Str("scenario", sc.Name).Logger()}

	if r.fixtures == nil {
		err = errors.New("no fixtures loaded")
	} else {
		err = sc.Run(ctx, env, rec)
	}

	res.Duration = time.Since(start)
	res.Checks = rec.Checks()
	if err != nil {
		res.Error = fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	res.Passed = err == nil && rec.Passed() && len(res.Checks) > 0

	r.logger.Debug().
		Str("scenario", sc.Name).
		Bool("passed", res.Passed).
		Int("checks", len(res.Checks)).
		Dur("duration", res.Duration).
		Msg("scenario finished")

	return res
}

func (r *Runner) clientOptions() []http.ClientOption {
	opts := make([]http.ClientOption, 0, len(r.config.ClientOptions)+1)
	opts = append(opts, http.WithLogger(r.logger))
	return append(opts, r.config.ClientOptions...)
}

func (r *Runner) shouldRun(sc Scenario) bool {
	return matchesPattern(sc.Name, r.config.NameFilter)
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	if strings.ContainsAny(pattern, "*?[{") {
		ok, err := doublestar.Match(pattern, name)
		return err == nil && ok
	}
	return strings.Contains(name, pattern)
}

func skipped(sc Scenario, reason string) *Result {
	return &Result{Name: sc.Name, Description: sc.Description, Skipped: true, SkipReason: reason}
}
