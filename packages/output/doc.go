// Package output renders suite.RunResult values.
//
// Console output is written as the run completes. The json, junit and tap
// formatters buffer scenarios and write the whole report when Flush is
// called, so callers check for Flushable after FormatResult. New picks a
// formatter by the name used on the command line.
package output
