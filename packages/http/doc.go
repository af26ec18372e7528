// Package http provides the proxy-aware HTTP client used by kbhelper.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts and redirect handling
//   - Proxy selection from the host proxy configuration
//   - Request configurators (used to attach the JSON-RPC authentication header)
//   - Raw URL fetching and JSON-RPC endpoint reachability checks
package http
