package errors

import (
	stdErrors "errors"
	"net/http"
)

type Code string

const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeInvalidVariation  Code = "INVALID_VARIATION"
	CodeCouponInvalid     Code = "COUPON_INVALID"
	CodeEmptyCart         Code = "EMPTY_CART"
	CodeIllegalTransition Code = "ILLEGAL_STATE_TRANSITION"
	CodeIdempotency       Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit         Code = "RATE_LIMIT_EXCEEDED"
	CodeTransaction       Code = "TRANSACTION_FAILURE"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodeDependency        Code = "DEPENDENCY_ERROR"
)

// Metadata drives how a code is rendered on the wire. IncludeCause appends
// the wrapped error text to the public message.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	IncludeCause   bool
}

type trait uint8

const (
	retryable trait = 1 << iota
	withDetails
	withCause
)

func meta(status int, public string, traits trait) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      traits&retryable != 0,
		DetailsAllowed: traits&withDetails != 0,
		IncludeCause:   traits&withCause != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:        meta(http.StatusUnprocessableEntity, "validation failed", withDetails),
	CodeBadRequest:        meta(http.StatusBadRequest, "bad request", withDetails),
	CodeUnauthorized:      meta(http.StatusUnauthorized, "authentication required", 0),
	CodeForbidden:         meta(http.StatusForbidden, "access denied", 0),
	CodeNotFound:          meta(http.StatusNotFound, "resource not found", 0),
	CodeConflict:          meta(http.StatusConflict, "conflict detected", withDetails),
	CodeInsufficientStock: meta(http.StatusBadRequest, "insufficient stock", withDetails),
	CodeInvalidVariation:  meta(http.StatusBadRequest, "invalid product variation", 0),
	CodeCouponInvalid:     meta(http.StatusBadRequest, "invalid or expired coupon", withDetails),
	CodeEmptyCart:         meta(http.StatusBadRequest, "cart is empty", 0),
	CodeIllegalTransition: meta(http.StatusBadRequest, "state transition disallowed", withDetails),
	CodeIdempotency:       meta(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:         meta(http.StatusTooManyRequests, "rate limit exceeded", 0),
	CodeTransaction:       meta(http.StatusInternalServerError, "transaction failed", retryable|withCause),
	CodeInternal:          meta(http.StatusInternalServerError, "internal server error", retryable|withCause),
	CodeDependency:        meta(http.StatusServiceUnavailable, "dependency unavailable", retryable|withDetails),
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.message == "":
		return string(e.code)
	default:
		return string(e.code) + ": " + e.message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if !stdErrors.As(err, &typed) {
		return nil
	}
	return typed
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	for typed := As(err); typed != nil; typed = As(typed.cause) {
		if typed.code == code {
			return true
		}
	}
	return false
}
