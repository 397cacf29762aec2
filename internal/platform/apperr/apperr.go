// Package apperr defines the error kinds shared by the ward, account and
// dashboard packages. Handlers map a Kind to an HTTP status; the wrapped
// error is logged but never sent to the client.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound    Kind = "NOT_FOUND"
	KindValidation  Kind = "VALIDATION"
	KindConflict    Kind = "CONFLICT"
	KindForbidden   Kind = "FORBIDDEN"
	KindPersistence Kind = "PERSISTENCE"
)

// ErrNotFound is the sentinel wrapped by repositories when a row is missing.
var ErrNotFound = errors.New("not found")

// Error is an application error carrying a Kind.
type Error struct {
	Kind    Kind
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

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: ErrNotFound}
}

func NewValidation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewForbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NewPersistence wraps a store error. A wrapped ErrNotFound is promoted to
// KindNotFound so callers only have to check one thing.
func NewPersistence(message string, err error) *Error {
	if errors.Is(err, ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: message, Err: err}
	}
	return &Error{Kind: KindPersistence, Message: message, Err: err}
}

// KindOf returns the Kind of err, or KindPersistence for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindPersistence
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

func IsConflict(err error) bool {
	return err != nil && KindOf(err) == KindConflict
}
