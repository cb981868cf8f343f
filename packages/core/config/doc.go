// Package config handles configuration loading and management for reqverify.
//
// It provides functionality for:
//   - Loading configuration from .reqverify.json, reqverify.config.json or
//     .reqverify.yaml files
//   - Default configuration values
//   - Overrides from REQVERIFY_ environment variables
package config
