package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("request timed out")
)

// APIError is a non-2xx answer from the backend. Kind is one of the sentinels
// above when the status maps to one, so errors.Is keeps working.
type APIError struct {
	StatusCode int
	Message    string
	Kind       error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Kind != nil {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, msg, e.StatusCode)
	}
	return fmt.Sprintf("api error: %s (status %d)", msg, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Kind }

// errorBody is the backend's error envelope. Either field may be empty.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	switch {
	case b.Error != "" && b.Message != "" && b.Error != b.Message:
		return b.Error + ": " + b.Message
	case b.Error != "":
		return b.Error
	default:
		return b.Message
	}
}

func kindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return nil
	}
}

// MessageOf returns the server-provided message of err, or err's text when
// the backend did not supply one.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
