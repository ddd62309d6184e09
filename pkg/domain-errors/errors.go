// Package domainerrors carries the classified error kinds surfaced by the identity core.
//
// Every error that crosses a package boundary is one of these codes. Callers branch on
// the code (HasCode) rather than on message text or raw transport errors.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies the kind of a domain error.
type Code string

const (
	CodeMalformedCredential      Code = "malformed_credential"
	CodeIdentityMismatch         Code = "identity_mismatch"
	CodeInvalidChallengeResponse Code = "invalid_challenge_response"
	CodeUnauthenticated          Code = "unauthenticated"
	CodeInvalidCredentials       Code = "invalid_credentials"
	CodeNetworkOrServer          Code = "network_or_server_error"

	CodeInvalidState  Code = "invalid_state"
	CodeValidation    Code = "validation_error"
	CodeStaleResponse Code = "stale_response"
	CodeForbidden     Code = "forbidden"
	CodeBadRequest    Code = "bad_request"
	CodeInternal      Code = "internal_error"
)

// Error is a classified error with a user-presentable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code so that errors.Is(err, New(code, "")) works regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when unclassified.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost domain message, falling back to err.Error().
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// ToHTTPStatus maps a code onto the status the console answers with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeUnauthenticated, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeIdentityMismatch, CodeInvalidChallengeResponse:
		return http.StatusUnprocessableEntity
	case CodeValidation, CodeBadRequest, CodeMalformedCredential:
		return http.StatusBadRequest
	case CodeInvalidState, CodeStaleResponse:
		return http.StatusConflict
	case CodeNetworkOrServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
