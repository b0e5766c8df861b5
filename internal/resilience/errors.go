// Package resilience classifies external-call failures and guards repeated
// calls to an unreachable service.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sells-group/roofsite-cli/internal/model"
)

// StatusCoder is implemented by HTTP client errors that carry a status code.
type StatusCoder interface {
	HTTPStatus() int
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded")
}

// IsTransient returns true if the error (or any error in its chain) matches
// common transient patterns: network timeouts, connection resets, DNS
// failures, or a retryable HTTP status.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsTimeout(err) {
		return true
	}

	var sc StatusCoder
	if errors.As(err, &sc) && IsTransientHTTPStatus(sc.HTTPStatus()) {
		return true
	}

	// Connection reset / refused / DNS.
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

// Reason maps an external-call failure to the fallback reason recorded in
// stage results.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOpen):
		return ReasonOpen
	case IsTimeout(err):
		return model.ReasonTimeout
	case IsTransient(err):
		return model.ReasonTransient
	default:
		return model.ReasonHTTP
	}
}
