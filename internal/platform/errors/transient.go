package errors

// Transport classification shared by the Search Console, Notion and SQL clients

import (
	"context"
	stderrs "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// StatusError is a non-2xx response from a remote HTTP API
type StatusError struct {
	Service    string
	Status     int
	Body       string
	RetryAfter time.Duration
}

// Error implements error
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Service, e.Status, e.Body)
}

// HTTPStatus returns the response status
func (e *StatusError) HTTPStatus() int { return e.Status }

// RetryAfterHint returns the server requested delay, zero when absent
func (e *StatusError) RetryAfterHint() time.Duration { return e.RetryAfter }

// FromHTTPStatus wraps a non-2xx response into an *Error whose code drives retry decisions
// body is truncated for logs
func FromHTTPStatus(service string, status int, body string, retryAfter time.Duration) error {
	return FromHTTPStatusCode(service, status, CodeForStatus(status), body, retryAfter)
}

// FromHTTPStatusCode is FromHTTPStatus with the code chosen by the caller, for APIs
// whose error body says more than the status does
func FromHTTPStatusCode(service string, status int, code ErrorCode, body string, retryAfter time.Duration) error {
	if len(body) > 512 {
		body = body[:512]
	}
	se := &StatusError{Service: service, Status: status, Body: strings.TrimSpace(body), RetryAfter: retryAfter}
	return Wrapf(se, code, "%s request failed", service)
}

// CodeForStatus maps an HTTP status to an ErrorCode
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorCodeTooManyRequests
	case status == http.StatusRequestTimeout, status >= 500:
		return ErrorCodeUnavailable
	case status == http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case status == http.StatusForbidden:
		return ErrorCodeForbidden
	case status == http.StatusNotFound:
		return ErrorCodeNotFound
	case status == http.StatusConflict:
		return ErrorCodeConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrorCodeInvalidArgument
	default:
		return ErrorCodeUnknown
	}
}

// RetryAfter extracts a server retry hint from anywhere in the chain
func RetryAfter(err error) time.Duration {
	var se *StatusError
	if stderrs.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}

// HTTPStatusOf returns the response status carried by err, or 0
func HTTPStatusOf(err error) int {
	var se *StatusError
	if stderrs.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsTransient reports whether err is worth retrying: rate limits, 5xx, timeouts,
// dropped connections and retryable database states. Cancellation never is.
// Timeouts are; retry.Do separately stops once the caller's ctx is done.
func IsTransient(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests:
		return true
	}
	var ne net.Error
	if stderrs.As(err, &ne) && ne.Timeout() {
		return true
	}
	if IsRetryable(err) {
		return true
	}
	return isNetTransient(err)
}

func isNetTransient(err error) bool {
	if stderrs.Is(err, io.ErrUnexpectedEOF) || stderrs.Is(err, syscall.ECONNRESET) ||
		stderrs.Is(err, syscall.ECONNREFUSED) || stderrs.Is(err, syscall.EPIPE) {
		return true
	}
	var oe *net.OpError
	return stderrs.As(err, &oe)
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
