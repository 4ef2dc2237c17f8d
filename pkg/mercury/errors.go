package mercury

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is wrapped by the ConfigError returned when no API key is supplied.
var ErrMissingAPIKey = errors.New("mercury api key is empty")

// ConfigError reports invalid client configuration or invalid call parameters.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "mercury config: " + e.Reason
	}
	return fmt.Sprintf("mercury config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError reports a failure to complete the HTTP exchange (DNS, TLS, connection, cancelled context).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mercury transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is returned when the service answers with a non-2xx status or reports a failure in-band.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercury api: status %d: %s", e.StatusCode, e.Message)
}

// DecodeError is returned when a successful response body does not match the article schema.
type DecodeError struct {
	Reason  string
	Snippet string
	Err     error
}

func (e *DecodeError) Error() string {
	msg := "mercury decode: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Snippet != "" {
		msg += " (body: " + e.Snippet + ")"
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsAPIError reports whether err wraps an *APIError.
func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}
