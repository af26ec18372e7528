package cmd

import (
	"context"
	"errors"
	"net"

	khttp "github.com/abdul-hamid-achik/kbhelper/packages/http"
)

// Exit codes for kbhelper CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitFailure indicates a generic failure
	ExitFailure = 1

	// ExitCheckFailed indicates the endpoint is not a JSON-RPC endpoint
	ExitCheckFailed = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps err to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var netErr net.Error
	var statusErr *khttp.StatusError
	switch {
	case errors.Is(err, khttp.ErrInvalidURL):
		return ExitUsageError
	case errors.As(err, &statusErr), errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return ExitNetworkError
	}
	return ExitFailure
}
