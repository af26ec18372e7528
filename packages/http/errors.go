package http

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is returned (wrapped) when a URL is empty or malformed.
var ErrInvalidURL = errors.New("invalid URL")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("request to %s failed: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}
