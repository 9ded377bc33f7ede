package websum

import (
	"context"
	"net/http"
)

// Fetcher retrieves rendered HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch navigates to the URL, waits for the page to load,
	// and returns the rendered HTML.
	// Failures are *Error values classified by NavigationReason.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases browser resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// Browser is a Fetcher backed by a long-lived session that can be
// replaced to bound memory growth.
type Browser interface {
	Fetcher

	// Recycle closes the current session and starts a fresh one.
	// On failure the previous session stays in use and ERESOURCE is returned.
	Recycle() error
}

// NavigationReason classifies why a navigation failed.
type NavigationReason string

// Navigation failure reasons.
const (
	ReasonTimeout     NavigationReason = "timeout"
	ReasonRateLimited NavigationReason = "rateLimited"
	ReasonServerError NavigationReason = "serverError"
	ReasonHTTPError   NavigationReason = "httpError"
	ReasonOther       NavigationReason = "other"
)

// Retryable reports whether navigation failures with this reason are transient.
func (r NavigationReason) Retryable() bool {
	return r != ReasonHTTPError
}

// NavigationError builds the error for a failed navigation to url.
// Status is the HTTP status when known, or zero.
func NavigationError(url string, reason NavigationReason, status int, cause error) *Error {
	code := ETRANSIENT
	if !reason.Retryable() {
		code = EPERMANENT
	}
	details := map[string]any{"url": url, "reason": string(reason)}
	if status != 0 {
		details["status"] = status
	}

	var msg string
	switch {
	case status != 0:
		msg = "navigating to " + url + ": " + http.StatusText(status)
	case cause != nil:
		msg = "navigating to " + url + ": " + cause.Error()
	default:
		msg = "navigating to " + url + ": " + string(reason)
	}
	return &Error{Code: code, Message: msg, Details: details, Err: cause}
}

// ClassifyStatus returns a navigation error for an HTTP error status,
// or nil for statuses below 400.
// 429 and 5xx are transient; any other 4xx is permanent.
func ClassifyStatus(url string, status int) error {
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusTooManyRequests:
		return NavigationError(url, ReasonRateLimited, status, nil)
	case status >= http.StatusInternalServerError:
		return NavigationError(url, ReasonServerError, status, nil)
	default:
		return NavigationError(url, ReasonHTTPError, status, nil)
	}
}
