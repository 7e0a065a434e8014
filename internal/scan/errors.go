package scan

import (
	"fmt"
	"net/http"
)

// ErrorKind identifies the terminal failure state of one settlement attempt.
// Each stage fails fast with its own kind; no stage is retried.
type ErrorKind string

const (
	KindNoTextDetected        ErrorKind = "no_text_detected"
	KindAmountNotFound        ErrorKind = "amount_not_found"
	KindInvalidAmount         ErrorKind = "invalid_amount"
	KindMerchantNotIdentified ErrorKind = "merchant_not_identified"
	KindTooManyRequests       ErrorKind = "too_many_requests"
	KindCreditsTooLow         ErrorKind = "credits_too_low"
	KindUnauthorized          ErrorKind = "unauthorized"
	KindNotFound              ErrorKind = "not_found"
	KindStorageFailure        ErrorKind = "storage_failure"
)

// Error is the structured failure surfaced to the transport layer. Message is
// the user-visible text; Err carries the underlying cause when there is one.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to a protocol-level status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindStorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}
