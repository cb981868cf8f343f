package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/reqverify/packages/fixture"
	"github.com/abdul-hamid-achik/reqverify/packages/http"
)

// Exit codes for reqverify CLI
const (
	// ExitSuccess indicates all scenarios passed
	ExitSuccess = 0

	// ExitVerificationFailure indicates one or more scenarios failed
	ExitVerificationFailure = 1

	// ExitConfigError indicates a configuration or fixture error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an explicit exit code. quiet errors have already been
// reported by the formatter.
type exitError struct {
	code  int
	err   error
	quiet bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

func configError(format string, args ...any) error {
	return &exitError{code: ExitConfigError, err: fmt.Errorf(format, args...)}
}

func verificationFailed(failed int) error {
	return &exitError{code: ExitVerificationFailure, err: fmt.Errorf("%d scenario(s) failed", failed), quiet: true}
}

func isQuiet(err error) bool {
	var e *exitError
	return errors.As(err, &e) && e.quiet
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}

	var (
		cfgErr       *http.ConfigurationError
		transportErr *http.TransportError
		missingErr   *fixture.MissingFieldError
	)
	switch {
	case errors.As(err, &transportErr):
		return ExitNetworkError
	case errors.As(err, &cfgErr), errors.As(err, &missingErr):
		return ExitConfigError
	}
	return ExitVerificationFailure
}
