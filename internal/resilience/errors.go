// Package resilience retries transient failures and stops calling a source
// once it keeps failing.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// StatusError is a non-2xx HTTP response from a news or mail endpoint.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fatal reports whether the status means later calls with the same
// credentials will fail too (bad key, exhausted quota).
func (e *StatusError) Fatal() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusForbidden ||
		e.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports whether err is safe to retry: a retryable status,
// a network timeout, or a reset/refused connection.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}

// IsFatal reports whether err carries a status that should open a breaker
// immediately.
func IsFatal(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Fatal()
}
