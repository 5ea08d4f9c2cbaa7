// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"errors"
	"net/http"
)

var (
	// ErrRateLimited is passed to the ErrorHandler when a client exceeds
	// its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMissingAPIKey is passed to the ErrorHandler when a protected
	// route is called without X-API-Key.
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrInvalidAPIKey is passed to the ErrorHandler when X-API-Key does
	// not match any configured key.
	ErrInvalidAPIKey = errors.New("invalid api key")
)

// ErrorHandler writes the response for a request rejected by middleware.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// PlainError is an ErrorHandler that writes err as text with the status
// matching the middleware errors.
func PlainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrMissingAPIKey):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrInvalidAPIKey):
		status = http.StatusForbidden
	}
	http.Error(w, err.Error(), status)
}
