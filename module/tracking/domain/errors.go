package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrNoRoute            = errors.New("no route in response")
	ErrInvalidGeometry    = errors.New("invalid route geometry")
	ErrRoutingUnavailable = errors.New("routing unavailable")
	ErrSessionExists      = errors.New("tracking session already open")
	ErrSessionNotFound    = errors.New("tracking session not found")
	ErrSessionClosed      = errors.New("tracking session closed")
	ErrLocationNotFound   = errors.New("courier location not found")
)

// DecodeError reports a malformed encoded polyline.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("polyline: %s at offset %d", e.Reason, e.Offset)
}

// TransportError wraps a network failure talking to a routing provider.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-success HTTP response from a routing provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// RoutingUnavailableError carries the failure of both providers.
type RoutingUnavailableError struct {
	Primary   error
	Secondary error
}

func (e *RoutingUnavailableError) Error() string {
	return fmt.Sprintf("routing unavailable: primary: %v; secondary: %v", e.Primary, e.Secondary)
}

func (e *RoutingUnavailableError) Is(target error) bool {
	return target == ErrRoutingUnavailable
}

func (e *RoutingUnavailableError) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}
