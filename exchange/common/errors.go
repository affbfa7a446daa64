package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeHTTP represents HTTP-related errors (status codes, etc.)
	ErrorTypeHTTP ErrorType = "http"

	// ErrorTypeNetwork represents network-related errors (connection issues, timeouts, etc.)
	ErrorTypeNetwork ErrorType = "network"

	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeAuthentication represents authentication errors
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypeParsing represents JSON parsing or data format errors
	ErrorTypeParsing ErrorType = "parsing"

	// ErrorTypeValidation represents validation errors (invalid arguments, etc.)
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeNormalization represents failures mapping a raw payload field
	// onto its canonical form (unknown variant, unknown schema field,
	// missing nested key). Never retried: it signals a wire-format change
	// or a bad upstream response.
	ErrorTypeNormalization ErrorType = "normalization"

	// ErrorTypeExchange represents errors reported by the exchange itself,
	// including error payloads embedded in 200 responses
	ErrorTypeExchange ErrorType = "exchange"

	// ErrorTypeUnknown represents unknown errors
	ErrorTypeUnknown ErrorType = "unknown"
)

// ExchangeError is the base error type for all exchange-related errors
type ExchangeError struct {
	Type        ErrorType
	Code        string
	Message     string
	StatusCode  int
	RawResponse []byte
	Timestamp   time.Time
	Retriable   bool
	Cause       error
}

// Error returns the error message
func (e *ExchangeError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s:%s] %s (HTTP %d)", e.Type, e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error
func (e *ExchangeError) Unwrap() error {
	return e.Cause
}

// IsRetriable returns whether the error is retriable
func (e *ExchangeError) IsRetriable() bool {
	return e.Retriable
}

// ParseJSON parses the raw response body as JSON
func (e *ExchangeError) ParseJSON(v interface{}) error {
	return json.Unmarshal(e.RawResponse, v)
}

// NewExchangeError creates a new exchange error
func NewExchangeError(errType ErrorType, code string, message string, cause error) *ExchangeError {
	return &ExchangeError{
		Type:      errType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retriable: false,
		Cause:     cause,
	}
}

// NewExchangeHTTPError creates an error for a non-success HTTP status,
// keeping the raw body for diagnosis
func NewExchangeHTTPError(statusCode int, body []byte, message string) *ExchangeError {
	retriable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	errType := ErrorTypeHTTP
	code := fmt.Sprintf("http_%d", statusCode)

	switch statusCode {
	case http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
		code = "rate_limit_exceeded"
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = ErrorTypeAuthentication
		code = "authentication_failed"
	case http.StatusBadRequest:
		errType = ErrorTypeValidation
		code = "invalid_request"
	}

	return &ExchangeError{
		Type:        errType,
		Code:        code,
		Message:     message,
		StatusCode:  statusCode,
		RawResponse: body,
		Timestamp:   time.Now(),
		Retriable:   retriable,
	}
}

// NewUpstreamError creates an error for an error payload the exchange
// embedded in an otherwise successful response
func NewUpstreamError(exchange string, body []byte) *ExchangeError {
	return &ExchangeError{
		Type:        ErrorTypeExchange,
		Code:        "upstream_error",
		Message:     fmt.Sprintf("%s returned an error payload: %s", exchange, body),
		RawResponse: body,
		Timestamp:   time.Now(),
		Retriable:   false,
	}
}

// NewParsingError creates a new parsing error
func NewParsingError(message string, cause error, rawData []byte) *ExchangeError {
	return &ExchangeError{
		Type:        ErrorTypeParsing,
		Code:        "json_parse_error",
		Message:     message,
		Timestamp:   time.Now(),
		Retriable:   false,
		Cause:       cause,
		RawResponse: rawData,
	}
}

// NewNormalizationError creates an error for a payload that could not be
// mapped onto a canonical entity
func NewNormalizationError(message string, cause error) *ExchangeError {
	return &ExchangeError{
		Type:      ErrorTypeNormalization,
		Code:      "normalization_failed",
		Message:   message,
		Timestamp: time.Now(),
		Retriable: false,
		Cause:     cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(code string, message string) *ExchangeError {
	return &ExchangeError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retriable: false,
	}
}

// NewTimeoutError creates an error for a request the exchange never
// answered, distinct from an exchange saying no
func NewTimeoutError(message string, cause error) *ExchangeError {
	return &ExchangeError{
		Type:      ErrorTypeNetwork,
		Code:      "timeout",
		Message:   message,
		Timestamp: time.Now(),
		Retriable: true,
		Cause:     cause,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *ExchangeError {
	return &ExchangeError{
		Type:      ErrorTypeAuthentication,
		Code:      "authentication_failed",
		Message:   message,
		Timestamp: time.Now(),
		Retriable: false,
	}
}

func asExchangeError(err error) (*ExchangeError, bool) {
	var exchangeErr *ExchangeError
	if err == nil || !errors.As(err, &exchangeErr) {
		return nil, false
	}
	return exchangeErr, true
}

// IsHTTPError checks if the error is an HTTP error
func IsHTTPError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeHTTP
}

// IsRateLimitError checks if the error is a rate limit error
func IsRateLimitError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeRateLimit
}

// IsAuthenticationError checks if the error is an authentication error
func IsAuthenticationError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeAuthentication
}

// IsParsingError checks if the error is a parsing error
func IsParsingError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeParsing
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeValidation
}

// IsNormalizationError checks if the error is a normalization failure
func IsNormalizationError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeNormalization
}

// IsUpstreamError checks if the error was reported by the exchange itself
func IsUpstreamError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeExchange
}

// IsTimeoutError checks if the error is a transport timeout
func IsTimeoutError(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.Type == ErrorTypeNetwork && exchangeErr.Code == "timeout"
}

// IsRetriable checks if the error is retriable
func IsRetriable(err error) bool {
	exchangeErr, ok := asExchangeError(err)
	return ok && exchangeErr.IsRetriable()
}
