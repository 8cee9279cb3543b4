package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrNotFound           = errors.New("not_found")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrPersonNameTaken    = errors.New("person_name_taken")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrValidation         = errors.New("validation")
)

// ValidationError reports rejected input. InvalidArgs echoes the operation
// arguments back to the caller for diagnostics; Err keeps the store or
// credential failure that caused it, if any.
type ValidationError struct {
	Message     string
	Fields      map[string]string
	InvalidArgs map[string]any
	Err         error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return msg + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func NewValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// NewInputError wraps cause as a ValidationError that carries the offending
// arguments.
func NewInputError(cause error, message string, fields map[string]string, args map[string]any) error {
	return &ValidationError{
		Message:     message,
		Fields:      fields,
		InvalidArgs: args,
		Err:         cause,
	}
}
