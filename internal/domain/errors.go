// Package domain provides the route model and canonical error types for the
// routing engine.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of a routing error.
type ErrorType string

const (
	// ErrorTypeMissingIdentity indicates no usable phone or business ID was found.
	ErrorTypeMissingIdentity ErrorType = "missing_identity"

	// ErrorTypeRouteNotFound indicates no configured rule resolved.
	ErrorTypeRouteNotFound ErrorType = "route_not_found"

	// ErrorTypeRouteInactive indicates a rule resolved but is disabled.
	ErrorTypeRouteInactive ErrorType = "route_inactive"

	// ErrorTypeUpstreamUnavailable indicates the forward to the destination failed.
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"

	// ErrorTypeMalformedPayload indicates the webhook body failed the shape check.
	ErrorTypeMalformedPayload ErrorType = "malformed_payload"
)

// RouteError is a canonical routing failure that handlers translate into an
// HTTP response. It never escapes the dispatch boundary unhandled.
type RouteError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Phone is the identity the request carried, if any (for diagnostics)
	Phone string `json:"phone,omitempty"`
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	if e.Phone != "" {
		return fmt.Sprintf("%s: %s (phone=%s)", e.Type, e.Message, e.Phone)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the status code the generic proxy path reports for
// this error. The webhook path deliberately ignores this mapping for
// everything except malformed payloads.
func (e *RouteError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeMissingIdentity, ErrorTypeMalformedPayload:
		return http.StatusBadRequest
	case ErrorTypeRouteNotFound:
		return http.StatusNotFound
	case ErrorTypeRouteInactive:
		return http.StatusForbidden
	case ErrorTypeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithPhone attaches the offending identity to the error.
func (e *RouteError) WithPhone(phone string) *RouteError {
	e.Phone = phone
	return e
}

// Convenience constructors for the taxonomy.

// ErrMissingIdentity creates a missing identity error.
func ErrMissingIdentity(message string) *RouteError {
	return &RouteError{Type: ErrorTypeMissingIdentity, Message: message}
}

// ErrRouteNotFound creates a route not found error.
func ErrRouteNotFound(message string) *RouteError {
	return &RouteError{Type: ErrorTypeRouteNotFound, Message: message}
}

// ErrRouteInactive creates a route inactive error.
func ErrRouteInactive(message string) *RouteError {
	return &RouteError{Type: ErrorTypeRouteInactive, Message: message}
}

// ErrUpstreamUnavailable creates an upstream unavailable error.
func ErrUpstreamUnavailable(message string) *RouteError {
	return &RouteError{Type: ErrorTypeUpstreamUnavailable, Message: message}
}

// ErrMalformedPayload creates a malformed payload error.
func ErrMalformedPayload(message string) *RouteError {
	return &RouteError{Type: ErrorTypeMalformedPayload, Message: message}
}
