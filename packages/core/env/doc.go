// Package env handles environment variables for reqverify.
//
// It provides functionality for:
//   - Loading .env files
//   - Reading REQVERIFY_-prefixed system variables as config overrides
//   - Interpolating {{variable}} and {{$ENV_VAR}} references in config values
package env
