package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Version is the JSON-RPC protocol version sent with every request.
const Version = "2.0"

// ErrIDMismatch is returned when a response does not carry the id of its request.
var ErrIDMismatch = errors.New("response id does not match request id")

// ErrEmptyResponse is returned when a call is answered without a body.
var ErrEmptyResponse = errors.New("empty JSON-RPC response")

// Request is a JSON-RPC 2.0 request. A nil ID makes it a notification.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      any             `json:"id"`
}

// Get reads a value from the result using a gjson path. An empty path returns the
// whole result.
func (r *Response) Get(path string) gjson.Result {
	if path == "" {
		return gjson.ParseBytes(r.Result)
	}
	return gjson.GetBytes(r.Result, path)
}

// Decode unmarshals the result into v.
func (r *Response) Decode(v any) error {
	if len(r.Result) == 0 {
		return fmt.Errorf("response has no result")
	}
	return json.Unmarshal(r.Result, v)
}

// Error is a JSON-RPC error object returned by the server.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Data) > 0 {
		return fmt.Sprintf("jsonrpc error %d: %s (%s)", e.Code, e.Message, string(e.Data))
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

func sameID(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
