// Package apperr defines the error taxonomy shared by every component and
// the HTTP surface that maps it to response bodies.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the coarse error category used to pick an HTTP status.
type Kind string

const (
	KindInvalidRequest          Kind = "INVALID_REQUEST"
	KindResourceNotFound        Kind = "RESOURCE_NOT_FOUND"
	KindBusinessRule            Kind = "BUSINESS_RULE"
	KindProviderUnavailable     Kind = "PROVIDER_UNAVAILABLE"
	KindProviderRejected        Kind = "PROVIDER_REJECTED"
	KindProviderContractViolation Kind = "PROVIDER_CONTRACT_VIOLATION"
	KindImportSanityFailed      Kind = "IMPORT_SANITY_FAILED"
	KindInternal                Kind = "INTERNAL"
)

// Business rule codes, surfaced verbatim to callers.
const (
	CodeDuplicateCurrencyCode       = "DuplicateCurrencyCode"
	CodeInvalidIso4217Code          = "InvalidIso4217Code"
	CodeInvalidProviderSeriesID     = "InvalidProviderSeriesId"
	CodeCurrencyNotEnabled          = "CurrencyNotEnabled"
	CodeNoExchangeRateDataAvailable = "NoExchangeRateDataAvailable"
	CodeStartDateOutOfRange         = "StartDateOutOfRange"
)

// Error is the concrete error type every component returns for expected
// failure modes. Unexpected failures should be wrapped with fmt.Errorf and
// will surface as KindInternal by the HTTP layer.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error for logging without changing the
// taxonomy exposed to callers.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithDetails attaches extra structured fields (e.g. earliestDate).
func (e *Error) WithDetails(details map[string]any) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func InvalidRequest(message string) *Error {
	return New(KindInvalidRequest, "", message)
}

func ResourceNotFound(message string) *Error {
	return New(KindResourceNotFound, "", message)
}

func BusinessRule(code, message string) *Error {
	return New(KindBusinessRule, code, message)
}

func ProviderUnavailable(message string) *Error {
	return New(KindProviderUnavailable, "", message)
}

func ProviderRejected(message string) *Error {
	return New(KindProviderRejected, "", message)
}

func ProviderContractViolation(message string) *Error {
	return New(KindProviderContractViolation, "", message)
}

func ImportSanityFailed(message string) *Error {
	return New(KindImportSanityFailed, "", message)
}

func Internal(message string) *Error {
	return New(KindInternal, "", message)
}

// HTTPStatus maps a Kind to the status code documented in spec §7.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindResourceNotFound:
		return http.StatusNotFound
	case KindBusinessRule:
		return http.StatusUnprocessableEntity
	case KindProviderUnavailable, KindProviderContractViolation, KindImportSanityFailed:
		return http.StatusServiceUnavailable
	case KindProviderRejected:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// As is a convenience wrapper around errors.As for the common case.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
