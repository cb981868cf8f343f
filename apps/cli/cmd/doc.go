// Package cmd implements the reqverify CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the users API verification scenarios
//   - mock: Serve the in-memory fake users API
//   - history: Show recorded runs
//   - version: Show reqverify version information
//
// Settings resolve from defaults, the config file, a .env file,
// REQVERIFY_ environment variables and finally flags.
package cmd
