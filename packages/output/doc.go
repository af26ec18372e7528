// Package output renders command results for the terminal.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output
//   - JSON: Machine-readable JSON output, one document per result
//
// Both formatters implement the Formatter interface.
package output
