package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonwraymond/storefront/session"
)

var (
	ErrMissingBaseURL = errors.New("api: base url is required")
	ErrUnknownActor   = errors.New("api: unknown actor")
	ErrEmptyID        = errors.New("api: id is required")
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
	RequestID  string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api: %d: %s", e.StatusCode, msg)
}

// UserMessage returns the message the server meant for the user.
func (e *Error) UserMessage() string { return e.Message }

// FieldErrors returns per-field validation messages.
func (e *Error) FieldErrors() map[string]string { return e.Fields }

// Is makes 401 and 403 responses match session.ErrRejected.
func (e *Error) Is(target error) bool {
	if target == session.ErrRejected {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// StatusOf returns the HTTP status of err, or 0 when err is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 or 403 response.
func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsValidation reports whether err is a 400 or 422 response.
func IsValidation(err error) bool {
	s := StatusOf(err)
	return s == http.StatusBadRequest || s == http.StatusUnprocessableEntity
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// MessageOf returns the server message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// countsAsFailure decides whether err should trip the circuit breaker.
// Client errors mean the backend answered; only transport failures and
// 5xx responses count.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if s := StatusOf(err); s != 0 {
		return s >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Errors  json.RawMessage `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field"`
	Path    string `json:"path"`
	Param   string `json:"param"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

// parseError builds an *Error from a failed response body. Bodies that are
// not JSON keep their text as the message.
func parseError(status int, body []byte, requestID string) *Error {
	e := &Error{StatusCode: status, RequestID: requestID}

	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 512 {
			e.Message = text
		}
		return e
	}
	e.Code = b.Code
	e.Message = b.Message
	if e.Message == "" {
		e.Message = b.Error
	}
	e.Fields = parseFieldErrors(b.Errors)
	if e.Message == "" && len(e.Fields) > 0 {
		e.Message = "Please correct the highlighted fields"
	}
	return e
}

// parseFieldErrors accepts {"field": "msg"} or [{"field": ..., "message": ...}].
func parseFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil && len(asMap) > 0 {
		return asMap
	}

	var asList []fieldError
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil
	}
	out := make(map[string]string, len(asList))
	for _, fe := range asList {
		name := firstNonEmpty(fe.Field, fe.Path, fe.Param)
		msg := firstNonEmpty(fe.Message, fe.Msg)
		if name == "" || msg == "" {
			continue
		}
		out[name] = msg
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
