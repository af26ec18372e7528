package output

import (
	"encoding/json"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
)

// Separator delimits sections of console output.
const Separator = "----------"

// Formatter renders command results.
type Formatter interface {
	FormatCheck(result *CheckResult)
	FormatCall(result *CallResult)
	FormatVars(vars env.Vars)
	FormatToken(result *TokenResult)
	FormatProxy(result *ProxyResult)
	FormatError(err error)
}

// CheckResult is the outcome of an endpoint reachability check.
type CheckResult struct {
	Endpoint  string
	Reachable bool
	Duration  time.Duration
	Err       error
}

// CallResult is a JSON-RPC call result. Result holds the raw JSON value, possibly
// narrowed by a query.
type CallResult struct {
	Method   string
	ID       any
	Query    string
	Result   json.RawMessage
	Duration time.Duration
}

// TokenResult describes where the API token came from. The token itself is never
// part of it.
type TokenResult struct {
	CredentialID string
	FromStore    bool
	Empty        bool
}

// Source names the token origin.
func (r *TokenResult) Source() string {
	switch {
	case r.FromStore:
		return "credential store"
	case r.Empty:
		return "none"
	default:
		return "literal"
	}
}

// ProxyResult is the proxy resolved for a target URL.
type ProxyResult struct {
	Target string
	Proxy  string // "direct" when no proxy applies
}
