package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// ResponseError is returned for any non-2xx HTTP response. Err holds the
// go-github error it was built from.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

// wrapError turns the go-github error types that carry an HTTP response
// into *ResponseError. Transport and context errors pass through unchanged.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	resp := errorResponse(err)
	if resp == nil {
		return err
	}

	respErr := &ResponseError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Err:        err,
	}
	if resp.Request != nil {
		respErr.Method = resp.Request.Method
		if resp.Request.URL != nil {
			respErr.URL = resp.Request.URL.String()
		}
	}
	// go-github refills the body after reading it in CheckResponse.
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		respErr.Body = strings.TrimSpace(string(body))
	}
	if respErr.Body == "" {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) {
			respErr.Body = ghErr.Message
		}
	}
	return respErr
}

// errorResponse digs the HTTP response out of the go-github error types.
func errorResponse(err error) *http.Response {
	var (
		ghErr    *gh.ErrorResponse
		tfaErr   *gh.TwoFactorAuthError
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
	)
	switch {
	case errors.As(err, &ghErr):
		return ghErr.Response
	case errors.As(err, &tfaErr):
		return tfaErr.Response
	case errors.As(err, &rateErr):
		return rateErr.Response
	case errors.As(err, &abuseErr):
		return abuseErr.Response
	}
	return nil
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if m := e.Message(); m != "" {
		msg += ": " + m
	}
	return msg
}

// Message extracts the "message" member GitHub puts in error bodies, or
// returns the raw body when it is not JSON.
func (e *ResponseError) Message() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return e.Body
}

// Unwrap returns the underlying go-github error.
func (e *ResponseError) Unwrap() error { return e.Err }

// LogAttrs returns the key-value pairs used when logging a failed request.
func (e *ResponseError) LogAttrs() []any {
	return []any{
		"status", e.StatusCode,
		"status_text", e.Status,
		"body", e.Body,
		"url", e.URL,
		"method", e.Method,
	}
}

// GraphQLError is returned when a GraphQL response carries an errors array.
type GraphQLError struct {
	Messages []string
}

// Error implements the error interface. Only the first message is shown,
// the rest are available in Messages.
func (e *GraphQLError) Error() string {
	if len(e.Messages) == 0 {
		return "graphql error"
	}
	return "graphql error: " + e.Messages[0]
}

// StatusCode returns the HTTP status of err if it is (or wraps) a
// ResponseError, or 0 otherwise.
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsConflict reports whether err means the resource already exists.
// GitHub answers 422 for duplicate refs and milestones; 409 is accepted too.
func IsConflict(err error) bool {
	code := StatusCode(err)
	return code == http.StatusConflict || code == http.StatusUnprocessableEntity
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
