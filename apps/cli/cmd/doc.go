// Package cmd implements the kbhelper CLI commands using Cobra.
//
// Available commands:
//   - check: Verify that an endpoint serves Kanboard JSON-RPC
//   - call: Invoke a JSON-RPC method with the configured API token
//   - fetch: Download a URL through the configured proxy
//   - encode, decode: Convert files to and from base64
//   - expand, csv: Expand environment variables and build macros
//   - env: List global variables and export contributions
//   - token, credential: Inspect the API token origin and manage stored credentials
//   - proxy: Show the proxy chosen for a URL
//   - version: Show kbhelper version information
//
// Persistent flags default from KBHELPER_* environment variables and override the
// configuration file.
package cmd
