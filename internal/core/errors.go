package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a recoverable, user-facing failure.
type Kind string

const (
	KindMissingRequiredField       Kind = "missing_required_field"
	KindUnsupportedLedgerReference Kind = "unsupported_ledger_reference"
	KindFutureDatedTransaction     Kind = "future_dated_transaction"
	KindOwnerNotFound              Kind = "owner_not_found"
	KindNotFound                   Kind = "not_found"
	KindResetTokenInvalidOrExpired Kind = "reset_token_invalid_or_expired"
)

// Error is an operational error: expected, recoverable, and safe to surface
// to the caller with an HTTP-style status code. Programming-error faults are
// plain errors and never carry a Kind.
type Error struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// IsKind reports whether err is (or wraps) a core Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// CodeOf returns the HTTP-style status code of err, or 500 for anything that
// is not an operational error.
func CodeOf(err error) int {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return http.StatusInternalServerError
}

// MissingFieldError reports a required field absent from a create payload.
func MissingFieldError(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Kind: KindMissingRequiredField, Message: message}
}

// UnsupportedReferenceError reports a debit or credit entry referencing an
// account, category, or sub-label the owner has not registered.
func UnsupportedReferenceError(classification Classification, main, sub string) *Error {
	return &Error{
		Code:    http.StatusNotFound,
		Kind:    KindUnsupportedLedgerReference,
		Message: fmt.Sprintf("the user doesn't have a registered %s with these details %q", classification, main+"/"+sub),
	}
}

// FutureDateError reports a transaction dated strictly after now.
func FutureDateError() *Error {
	return &Error{
		Code:    http.StatusBadRequest,
		Kind:    KindFutureDatedTransaction,
		Message: "date must be less than or equal to the current date",
	}
}

// OwnerNotFoundError reports a transaction owner that no longer exists.
func OwnerNotFoundError(userID string) *Error {
	return &Error{
		Code:    http.StatusNotFound,
		Kind:    KindOwnerNotFound,
		Message: fmt.Sprintf("no user was found with this id %q", userID),
	}
}

// NotFoundError reports a missing entity.
func NotFoundError(message string) *Error {
	return &Error{Code: http.StatusNotFound, Kind: KindNotFound, Message: message}
}

// ResetTokenError reports an invalid or expired password-reset token.
func ResetTokenError() *Error {
	return &Error{
		Code:    http.StatusUnauthorized,
		Kind:    KindResetTokenInvalidOrExpired,
		Message: "the password reset token is invalid or has expired",
	}
}
