package domain

import "errors"

// Error kinds. Every error that reaches the HTTP boundary is expected to wrap
// exactly one of these; anything else is rendered as a generic server error.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("persistence failure")
)

// Error pairs an error kind with a message that is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
	Err  error // underlying cause, never rendered

	// Fields holds per-field messages for validation failures.
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Is lets errors.Is match both the kind and the wrapped cause.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: ErrForbidden, Msg: msg} }
func Validation(msg string) error      { return &Error{Kind: ErrValidation, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: ErrNotFound, Msg: msg} }
func Conflict(msg string) error        { return &Error{Kind: ErrConflict, Msg: msg} }

// Persistence wraps a storage failure. The op string is kept for logs only.
func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Msg: op, Err: err}
}

// Message returns the client-facing message carried by err, or fallback when
// err is not a *Error.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != ErrPersistence {
		return de.Msg
	}
	return fallback
}

// Canonical not-found errors shared by services and repositories.
var (
	ErrUserNotFound     = &Error{Kind: ErrNotFound, Msg: "User not found."}
	ErrCustomerNotFound = &Error{Kind: ErrNotFound, Msg: "Customer not found."}
	ErrLeadNotFound     = &Error{Kind: ErrNotFound, Msg: "Lead not found."}
)
