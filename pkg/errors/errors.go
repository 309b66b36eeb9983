package errors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies every error the module produces.
type Code string

const (
	// CodeTransport marks a network failure with no server response at all.
	CodeTransport Code = "TRANSPORT_ERROR"
	// CodeAPI marks a non-2xx response; the message carries the server's own
	// message field when one could be parsed.
	CodeAPI Code = "API_ERROR"
	// CodeMalformedResponse marks a 2xx body that failed to decode or validate.
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Metadata describes how a code behaves toward callers.
type Metadata struct {
	Retryable     bool
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeTransport:         {Retryable: true, PublicMessage: "network request failed"},
	CodeAPI:               {Retryable: false, PublicMessage: "request failed"},
	CodeMalformedResponse: {Retryable: false, PublicMessage: "unexpected server response"},
	CodeUnauthorized:      {Retryable: false, PublicMessage: "authentication required"},
	CodeForbidden:         {Retryable: false, PublicMessage: "access denied"},
	CodeNotFound:          {Retryable: false, PublicMessage: "resource not found"},
	CodeValidation:        {Retryable: false, PublicMessage: "validation failed"},
	CodeConflict:          {Retryable: false, PublicMessage: "conflict detected"},
	CodeInternal:          {Retryable: false, PublicMessage: "internal error"},
}

// MetadataFor returns the metadata for a code, defaulting to internal.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the coded error carried across every layer of the module.
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

// Message returns the human-readable message. For CodeAPI this is the server's
// own message, passed through verbatim for display.
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

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts a coded error from an error chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the chain carries a coded error with the given code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// DisplayMessage returns what a UI should show for the error: the coded
// message when one exists, otherwise the generic public message.
func DisplayMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	if msg := typed.Message(); msg != "" {
		return msg
	}
	return MetadataFor(typed.Code()).PublicMessage
}
