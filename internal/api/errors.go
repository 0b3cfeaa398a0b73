package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures that reach the caller.
type Kind int

const (
	// KindServer is a non-2xx answer: validation or server error.
	KindServer Kind = iota + 1
	// KindNetwork means no response was received.
	KindNetwork
	// KindInvalid is input rejected before any request was sent.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is a failed API call. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Cause)
	case KindInvalid:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Retryable reports whether repeating the call could succeed: network
// failures, 5xx answers and 429.
func Retryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Kind == KindNetwork {
		return true
	}
	return apiErr.Status >= http.StatusInternalServerError || apiErr.Status == http.StatusTooManyRequests
}

// UserMessage returns the text to show for err in a transient notification.
func UserMessage(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

type errorBody struct {
	Message string `json:"message"`
}

func messageFromBody(body []byte) string {
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}
