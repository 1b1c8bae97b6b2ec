package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is the normalized failure class of a provider call.
type Kind string

const (
	KindUnavailable Kind = "unavailable"
	KindRateLimited Kind = "rate_limited"
	KindTimeout     Kind = "timeout"
	KindBadResponse Kind = "bad_response"
)

// Error is a provider failure translated into the shared taxonomy.
type Error struct {
	Provider   string
	Capability Capability
	Kind       Kind
	Status     int // HTTP status when applicable, 0 otherwise
	Err        error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %v", e.Provider, e.Capability, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Capability, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Temporary reports whether retrying the same provider can help. Bad
// responses are deterministic, so only the other three kinds are temporary.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindUnavailable, KindRateLimited, KindTimeout:
		return !e.Terminal()
	default:
		return false
	}
}

// Terminal reports a failure class that will not recover within this run
// (bad credentials, exhausted quota). The orchestrator skips the provider
// for the remainder of the window after one of these.
func (e *Error) Terminal() bool {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return true
	}
	return false
}

// KindFromStatus maps an HTTP status to an error kind:
// 429/402 rate limited, 503/404/504 unavailable, any other non-2xx a bad
// response.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return KindRateLimited
	case http.StatusServiceUnavailable, http.StatusNotFound, http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindBadResponse
	}
}

// WrapHTTPError builds an Error for a transport-level failure (no HTTP
// status available), distinguishing timeouts from unreachable hosts.
func WrapHTTPError(providerName string, capability Capability, err error) *Error {
	kind := KindUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		}
	}
	return &Error{Provider: providerName, Capability: capability, Kind: kind, Err: err}
}

// StatusError builds an Error for a non-2xx HTTP response.
func StatusError(providerName string, capability Capability, status int, body string) *Error {
	return &Error{
		Provider:   providerName,
		Capability: capability,
		Kind:       KindFromStatus(status),
		Status:     status,
		Err:        fmt.Errorf("provider returned status %d: %s", status, truncate(body, 200)),
	}
}

// BadResponseError builds an Error for a 2xx response the adapter could not
// interpret.
func BadResponseError(providerName string, capability Capability, err error) *Error {
	return &Error{Provider: providerName, Capability: capability, Kind: KindBadResponse, Err: err}
}

// AsError extracts a provider *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
