package journal

import (
	"errors"
	"fmt"
	"net/http"

	"trading-journal-go/internal/validate"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindBadQuery
	KindNotFound
	KindNotAuthorized
	KindConflict
)

// Status is the HTTP status a Kind is reported with.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAuthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// Error is a failure the caller caused. Anything that is not an *Error is a server fault.
type Error struct {
	Kind    Kind
	Message string
	Fields  validate.FieldErrors
}

func (e *Error) Error() string { return e.Message }

// Status is the HTTP status for e.
func (e *Error) Status() int { return e.Kind.Status() }

// AsError unwraps err to an *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Action names the operation in an authorization failure.
type Action string

const (
	ActionAccess Action = "access"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSync   Action = "sync"
)

func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found with id of %s", resource, id)}
}

func NotAuthorized(action Action, resource string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: fmt.Sprintf("User not authorized to %s this %s", action, resource)}
}

// Unauthorized is an authentication failure with a fixed message.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindNotAuthorized, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func BadQuery(err error) *Error {
	return &Error{Kind: KindBadQuery, Message: err.Error()}
}

func BadRequest(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Invalid turns a validate.FieldErrors into a validation Error. Other errors pass through.
func Invalid(err error) error {
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		return &Error{Kind: KindValidation, Message: fields.Error(), Fields: fields}
	}
	return err
}
