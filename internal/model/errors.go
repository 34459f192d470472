package model

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies every failure the client can surface.
type ErrorKind string

const (
	// KindNetwork: the request could not be sent or the response not received.
	KindNetwork ErrorKind = "network"
	// KindServer: non-2xx response other than 401/403, or an unreadable body.
	KindServer ErrorKind = "server"
	// KindAuth: missing or rejected token (401/403).
	KindAuth ErrorKind = "auth"
	// KindValidation: a local form precondition failed.
	KindValidation ErrorKind = "validation"
	// KindPolicy: the access policy denied the action.
	KindPolicy ErrorKind = "policy"
)

var (
	ErrPending   = stderrors.New("book has an operation in progress")
	ErrNotLoaded = stderrors.New("book is not on the current page")
	ErrNoSession = stderrors.New("no authenticated session")
)

type Error struct {
	Kind ErrorKind
	// Status is the HTTP status code, zero for local errors.
	Status  int
	Message string
	// Fields maps form fields to their validation message.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		if msg == "" {
			return strings.Join(parts, "; ")
		}
		return msg + " (" + strings.Join(parts, "; ") + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the failure came from the remote side and the
// optimistic change it caused must be rolled back.
func (e *Error) Recoverable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer || e.Kind == KindAuth
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NewPolicyError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindPolicy, Message: fmt.Sprintf(format, args...), Err: err}
}

func NewValidationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "invalid form", Fields: fields}
}
