// Package config loads kbhelper configuration.
//
// It provides functionality for:
//   - Loading .kbhelper.json (comments allowed) or .kbhelper.yaml files
//   - Schema validation of configuration files
//   - Default configuration values and merging of overrides
//   - Building the credential store chain used to resolve API tokens
package config
