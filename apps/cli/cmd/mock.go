package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqverify/packages/mock"
)

var (
	mockPortFlag     int
	mockDelayFlag    string
	mockPasswordFlag string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve an in-memory fake of the users API",
	Long: `Start an HTTP server that mimics the reqres users API.

The fake serves twelve users, six per page:
- GET    /api/users?page=N
- GET    /api/users/{id}        (404 with {} when the user does not exist)
- POST   /api/users             (201, echoes the body with id and createdAt)
- PUT    /api/users/{id}        (200, echoes the body with updatedAt)
- PATCH  /api/users/{id}
- DELETE /api/users/{id}        (204)
- POST   /api/login             (sets a session cookie)
- GET    /api/me                (basic auth or session cookie)

Examples:
  reqverify mock
  reqverify mock --port 3000 --delay 100ms
  reqverify run --base-url http://localhost:3000`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "p", getEnvInt("REQVERIFY_MOCK_PORT", 3000), "Port to run the mock server on (env: REQVERIFY_MOCK_PORT)")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().StringVar(&mockPasswordFlag, "password", getEnvString("REQVERIFY_MOCK_PASSWORD", mock.DefaultPassword), "Password accepted by login and basic auth (env: REQVERIFY_MOCK_PASSWORD)")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return usageError(fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err))
		}
	}

	server := mock.NewServer(
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithPassword(mockPasswordFlag),
		mock.WithLogger(logger),
	)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d routes on http://localhost:%d\n", len(server.Routes()), mockPortFlag)
	for _, r := range server.Routes() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-6s %s\n", r.Method, r.PathPattern)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return &exitError{code: ExitNetworkError, err: err}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down mock server...")
	return nil
}
