package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/abdul-hamid-achik/kbhelper/packages/core/env"
)

// JSONCheck represents a reachability check result
type JSONCheck struct {
	Endpoint  string  `json:"endpoint"`
	Reachable bool    `json:"reachable"`
	Duration  float64 `json:"duration"`
	Error     string  `json:"error,omitempty"`
}

// JSONCall represents a JSON-RPC call result
type JSONCall struct {
	Method   string          `json:"method"`
	ID       any             `json:"id,omitempty"`
	Query    string          `json:"query,omitempty"`
	Result   json.RawMessage `json:"result"`
	Duration float64         `json:"duration"`
}

// JSONToken represents the API token origin
type JSONToken struct {
	Source       string `json:"source"`
	CredentialID string `json:"credentialId,omitempty"`
}

// JSONProxy represents a proxy resolution
type JSONProxy struct {
	Target string `json:"target"`
	Proxy  string `json:"proxy"`
}

// JSONError represents a command failure
type JSONError struct {
	Error string `json:"error"`
}

// JSONFormatter writes each result as an indented JSON document
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) encode(v any) {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

func (f *JSONFormatter) FormatCheck(result *CheckResult) {
	out := JSONCheck{
		Endpoint:  result.Endpoint,
		Reachable: result.Reachable,
		Duration:  float64(result.Duration.Milliseconds()),
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}
	f.encode(out)
}

func (f *JSONFormatter) FormatCall(result *CallResult) {
	raw := result.Result
	if !json.Valid(raw) {
		raw, _ = json.Marshal(string(raw))
	}
	f.encode(JSONCall{
		Method:   result.Method,
		ID:       result.ID,
		Query:    result.Query,
		Result:   raw,
		Duration: float64(result.Duration.Milliseconds()),
	})
}

func (f *JSONFormatter) FormatVars(vars env.Vars) {
	if vars == nil {
		vars = env.Vars{}
	}
	f.encode(vars)
}

func (f *JSONFormatter) FormatToken(result *TokenResult) {
	f.encode(JSONToken{Source: result.Source(), CredentialID: result.CredentialID})
}

func (f *JSONFormatter) FormatProxy(result *ProxyResult) {
	f.encode(JSONProxy{Target: result.Target, Proxy: result.Proxy})
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(JSONError{Error: err.Error()})
}

var (
	_ Formatter = (*ConsoleFormatter)(nil)
	_ Formatter = (*JSONFormatter)(nil)
)
