package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqverify/packages/core/config"
	"github.com/abdul-hamid-achik/reqverify/packages/core/env"
	"github.com/abdul-hamid-achik/reqverify/packages/fixture"
	"github.com/abdul-hamid-achik/reqverify/packages/history"
	"github.com/abdul-hamid-achik/reqverify/packages/http"
	"github.com/abdul-hamid-achik/reqverify/packages/output"
	"github.com/abdul-hamid-achik/reqverify/packages/suite"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the users API verification scenarios",
	Long: `Run the users API verification scenarios against a base URL.

Examples:
  reqverify run
  reqverify run --base-url http://localhost:3000 --fixtures testdata/UserDetails.json
  reqverify run --name "get-users-page-*" --bail
  reqverify run --output junit --output-file report.xml
  reqverify run --history .reqverify/history.db --rate 2
  reqverify run --watch`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	baseURLFlag    string
	fixturesFlag   string
	configFlag     string
	envFileFlag    string
	nameFlag       string
	bailFlag       bool
	timeoutFlag    string
	rateFlag       float64
	outputFlag     string
	outputFileFlag string
	historyFlag    string
	watchFlag      bool
	noColorFlag    bool
	verboseFlag    bool
	proxyFlag      string
	insecureFlag   bool
)

func init() {
	// Target flags
	runCmd.Flags().StringVarP(&baseURLFlag, "base-url", "u", "", "Base URL of the users API (env: REQVERIFY_BASE_URL)")
	runCmd.Flags().StringVarP(&fixturesFlag, "fixtures", "f", "", "Fixture file, JSON or YAML (env: REQVERIFY_FIXTURES)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("REQVERIFY_CONFIG", ""), "Path to config file (env: REQVERIFY_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("REQVERIFY_ENV_FILE", ""), "Path to .env file (env: REQVERIFY_ENV_FILE)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only scenarios matching name or glob")

	// Output flags
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output format: console, json, junit, tap (env: REQVERIFY_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("REQVERIFY_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: REQVERIFY_OUTPUT_FILE)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colored output (env: REQVERIFY_NO_COLOR)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show passing checks")
	runCmd.Flags().StringVar(&historyFlag, "history", "", "Record the run in this SQLite database (env: REQVERIFY_HISTORY)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", false, "Stop on first failing scenario (env: REQVERIFY_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", "", "Request timeout, e.g. 30s or 500ms (env: REQVERIFY_TIMEOUT in ms)")
	runCmd.Flags().Float64VarP(&rateFlag, "rate", "r", 0, "Maximum scenarios started per second, 0 for unlimited (env: REQVERIFY_RATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the fixture and config files and re-run on change")

	// Network flags
	runCmd.Flags().StringVar(&proxyFlag, "proxy", "", "Proxy URL for HTTP requests (env: REQVERIFY_PROXY)")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", false, "Disable TLS certificate validation")
}

// resolveConfig layers defaults, the config file, the .env file, REQVERIFY_
// environment variables and explicitly set flags, later layers winning. The
// returned map holds the .env variables for header interpolation.
func resolveConfig(cmd *cobra.Command) (*config.Config, map[string]string, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, nil, err
	}

	var dotenv map[string]string
	if envFileFlag != "" {
		dotenv, err = env.LoadAndExportDotEnv(envFileFlag)
		if err != nil {
			return nil, nil, err
		}
	}

	fromEnv, err := config.FromEnv(env.LoadSystemEnv(env.Prefix))
	if err != nil {
		return nil, nil, fmt.Errorf("environment: %w", err)
	}
	cfg = cfg.Merge(fromEnv)

	fromFlags, err := flagOverrides(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Merge(fromFlags), dotenv, nil
}

func flagOverrides(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	c := &config.Config{
		BaseURL:  baseURLFlag,
		Fixtures: fixturesFlag,
		Proxy:    proxyFlag,
		Rate:     rateFlag,
		History:  historyFlag,
		Output:   outputFlag,
	}

	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		c.Timeout = int(d.Milliseconds())
	}
	if flags.Changed("bail") {
		c.Bail = config.BoolPtr(bailFlag)
	}
	if flags.Changed("no-color") {
		c.NoColor = config.BoolPtr(noColorFlag)
	}
	if insecureFlag {
		c.ValidateSSL = config.BoolPtr(false)
	}
	return c, nil
}

func clientOptions(cfg *config.Config, headers map[string]string) []http.ClientOption {
	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithRequestID(true),
		http.WithDefaultHeaders(headers),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(cfg.TimeoutDuration()))
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	return opts
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer = cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	err := runOnce(ctx, cmd, out)
	if !watchFlag {
		return err
	}
	return watch(ctx, cmd, out)
}

func runOnce(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
	cfg, dotenv, err := resolveConfig(cmd)
	if err != nil {
		return configError("%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return configError("%w", err)
	}

	formatter, err := output.New(cfg.Output, out, verboseFlag, cfg.GetNoColor())
	if err != nil {
		return usageError(err)
	}
	formatter.FormatHeader(version)

	tree, err := fixture.Load(cfg.Fixtures)
	if err != nil {
		formatter.FormatError(err)
		return configError("%w", err)
	}

	resolver := env.NewResolver(dotenv)
	headers := resolver.ResolveAll(cfg.Headers)
	for _, ref := range resolver.Unresolved() {
		logger.Warn().Str("reference", ref).Msg("unresolved header reference")
	}

	runner := suite.NewRunner(&suite.Config{
		BaseURL:       cfg.BaseURL,
		ClientOptions: clientOptions(cfg, headers),
		NameFilter:    nameFlag,
		Bail:          cfg.GetBail(),
		Rate:          cfg.Rate,
	}, tree, suite.WithLogger(logger))

	logger.Info().Str("baseUrl", cfg.BaseURL).Str("fixtures", cfg.Fixtures).Msg("starting run")

	started := time.Now()
	result, runErr := runner.Run(ctx)
	formatter.FormatResult(result)

	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(result.Duration); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}

	if cfg.History != "" {
		recordHistory(ctx, cmd, cfg.History, started, result)
	}

	if runErr != nil {
		return runErr
	}
	if result.Failed > 0 {
		if allNetworkFailures(result) {
			return &exitError{code: ExitNetworkError, err: fmt.Errorf("%d scenario(s) could not reach %s", result.Failed, cfg.BaseURL), quiet: true}
		}
		return verificationFailed(result.Failed)
	}
	return nil
}

func allNetworkFailures(result *suite.RunResult) bool {
	for _, r := range result.Results {
		if r.Skipped || r.Passed {
			continue
		}
		var transportErr *http.TransportError
		if !errors.As(r.Error, &transportErr) {
			return false
		}
	}
	return true
}

func recordHistory(ctx context.Context, cmd *cobra.Command, path string, started time.Time, result *suite.RunResult) {
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to open history: %v\n", err)
		return
	}
	defer store.Close()

	id, err := store.Record(context.WithoutCancel(ctx), started, result)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to record run: %v\n", err)
		return
	}
	logger.Info().Str("run", id).Str("history", path).Msg("run recorded")
}

// watchTargets returns the absolute paths whose changes trigger a re-run.
func watchTargets() ([]string, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}
	fixtures := cfg.Fixtures
	if fixturesFlag != "" {
		fixtures = fixturesFlag
	}

	var targets []string
	for _, p := range []string{fixtures, configFlag, envFileFlag} {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		targets = append(targets, abs)
	}
	for _, name := range config.ConfigFilenames {
		if abs, err := filepath.Abs(name); err == nil {
			targets = append(targets, abs)
		}
	}
	return targets, nil
}

func watch(ctx context.Context, cmd *cobra.Command, out io.Writer) error {
	targets, err := watchTargets()
	if err != nil {
		return configError("%w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	relevant := make(map[string]bool, len(targets))
	watchedDirs := make(map[string]bool)
	for _, t := range targets {
		relevant[t] = true
		dir := filepath.Dir(t)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to watch %s: %v\n", dir, err)
		}
		watchedDirs[dir] = true
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	rerun := make(chan string, 1)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case name := <-rerun:
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running scenarios...\n\n", name)
			if err := runOnce(ctx, cmd, out); err != nil && !isQuiet(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(event.Name)
			if !relevant[abs] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerun <- name:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}
