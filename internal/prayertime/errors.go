package prayertime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorType is the failure category used to decide retries and what to tell
// an operator.
type ErrorType string

const (
	ErrNetwork    ErrorType = "network"
	ErrTimeout    ErrorType = "timeout"
	ErrRateLimit  ErrorType = "rateLimit"
	ErrAPI        ErrorType = "api"
	ErrValidation ErrorType = "validation"
	ErrDatabase   ErrorType = "database"
	ErrUnknown    ErrorType = "unknown"
)

// UpstreamError is returned by the prayer-time API client.
type UpstreamError struct {
	Type       ErrorType
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) ErrorType() ErrorType { return e.Type }

type categorizedError struct {
	typ ErrorType
	err error
}

func (e *categorizedError) Error() string { return string(e.typ) + ": " + e.err.Error() }

func (e *categorizedError) Unwrap() error { return e.err }

func (e *categorizedError) ErrorType() ErrorType { return e.typ }

// WithType tags err with a fixed category so Categorize does not have to
// guess from the message.
func WithType(t ErrorType, err error) error {
	if err == nil {
		return nil
	}
	return &categorizedError{typ: t, err: err}
}

func validationf(format string, args ...any) error {
	return WithType(ErrValidation, fmt.Errorf(format, args...))
}

var keywordRules = []struct {
	typ      ErrorType
	keywords []string
}{
	{ErrNetwork, []string{"network", "fetch", "connection"}},
	{ErrTimeout, []string{"timeout", "timed out"}},
	{ErrRateLimit, []string{"rate limit", "too many requests"}},
	{ErrAPI, []string{"api", "http"}},
	{ErrValidation, []string{"validation", "invalid"}},
	{ErrDatabase, []string{"database"}},
}

// Categorize classifies err. Errors that know their own category win, then
// deadline/timeout errors, then keyword matching on the message.
func Categorize(err error) ErrorType {
	if err == nil {
		return ErrUnknown
	}
	var typed interface{ ErrorType() ErrorType }
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.typ
			}
		}
	}
	return ErrUnknown
}

func IsRetryable(t ErrorType) bool {
	switch t {
	case ErrNetwork, ErrTimeout, ErrAPI, ErrRateLimit:
		return true
	}
	return false
}

var baseDelays = map[ErrorType]time.Duration{
	ErrRateLimit:  5 * time.Second,
	ErrTimeout:    2 * time.Second,
	ErrNetwork:    time.Second,
	ErrAPI:        time.Second,
	ErrDatabase:   500 * time.Millisecond,
	ErrValidation: 0,
	ErrUnknown:    time.Second,
}

// RetryDelay is the backoff before retry number attempt (0-based) for t.
func RetryDelay(t ErrorType, attempt int) time.Duration {
	base, ok := baseDelays[t]
	if !ok {
		base = baseDelays[ErrUnknown]
	}
	return ComputeDelay(base, attempt)
}

var userMessages = map[ErrorType]string{
	ErrNetwork:    "Could not reach the prayer time service. Check the network connection and try again.",
	ErrTimeout:    "The prayer time service took too long to respond. Please try again.",
	ErrRateLimit:  "Too many requests were sent to the prayer time service. Please wait a moment and try again.",
	ErrAPI:        "The prayer time service returned an error. Please try again later.",
	ErrValidation: "The request contained invalid data. Please review the input and try again.",
	ErrDatabase:   "The schedule could not be saved to the database. Please try again.",
	ErrUnknown:    "An unexpected error occurred. Please try again.",
}

func UserMessage(t ErrorType) string {
	if msg, ok := userMessages[t]; ok {
		return msg
	}
	return userMessages[ErrUnknown]
}
