package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrAuthRequired means no token is stored; the request was never sent.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAuthExpired is wrapped by the ServerError of every 401 response.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrInvalidResponse means a content listing had neither envelope.
	ErrInvalidResponse = errors.New("invalid response format")
)

// TransportError means the request was sent but no response arrived.
type TransportError struct {
	cause error
}

func (e *TransportError) Error() string { return "No response received from server" }

func (e *TransportError) Unwrap() error { return e.cause }

// ServerError is a response with a non-2xx status.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed with status %d", e.Status)
}

func (e *ServerError) Is(target error) bool {
	return target == ErrAuthExpired && e.Status == http.StatusUnauthorized
}

// ValidationErrors maps a form field to its message. It is produced before
// any request is made.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return strings.Join(parts, "; ")
}

// Message returns the text to show the user for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		srv *ServerError
		tr  *TransportError
		ve  ValidationErrors
	)
	switch {
	case errors.As(err, &srv):
		return srv.Error()
	case errors.As(err, &tr):
		return tr.Error()
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrAuthRequired):
		return "Authentication required. Please login."
	default:
		if msg := err.Error(); msg != "" {
			return msg
		}
		return "An unknown error occurred"
	}
}
