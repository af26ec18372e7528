// Package env handles environment variables for kbhelper.
//
// It provides functionality for:
//   - Variable maps with $VAR / ${VAR} expansion
//   - Reading the globally configured environment property sets
//   - Loading and writing dotenv files
//   - Contributions: name/value pairs applied to a build environment later on
package env
