package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of an error by who can fix it.
type ErrorClass string

const (
	// ErrorClassUser indicates bad command-line input, correctable by the
	// caller supplying a corrected value.
	ErrorClassUser ErrorClass = "user"

	// ErrorClassConfig indicates an invalid configuration authored in the
	// project: duplicate key names, dependency cycles, malformed
	// declarations. The configuration must change before the pass can
	// succeed.
	ErrorClassConfig ErrorClass = "config"

	// ErrorClassInternal indicates an invariant violation inside the
	// engine. Continuing would produce silently wrong generated output,
	// so callers abort the pass.
	ErrorClassInternal ErrorClass = "internal"
)

// Error represents a classified engine error with context.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Key is the name of the key that caused the error, if applicable.
	Key string `json:"key,omitempty"`

	// Nodes lists the labels of the graph nodes involved, if applicable.
	Nodes []string `json:"nodes,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Class, e.Message)
	if e.Key != "" {
		fmt.Fprintf(&b, " (key=%s)", e.Key)
	}
	if len(e.Nodes) > 0 {
		fmt.Fprintf(&b, " (nodes=%s)", strings.Join(e.Nodes, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewUserError creates a new user-class error.
func NewUserError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassUser,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new configuration-class error.
func NewConfigError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassConfig,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal-class error.
func NewInternalError(message string, err error) *Error {
	return &Error{
		Class:   ErrorClassInternal,
		Message: message,
		Err:     err,
	}
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithKey adds the offending key name to an error.
func (e *Error) WithKey(name string) *Error {
	e.Key = name
	return e
}

// WithNodes adds the involved node labels to an error.
func (e *Error) WithNodes(labels ...string) *Error {
	e.Nodes = append(e.Nodes, labels...)
	return e
}

// WithDetail adds a detail field to the error context.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsUser returns true if the error is classified as a user error.
func IsUser(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassUser
	}
	return false
}

// IsConfig returns true if the error is classified as a configuration error.
func IsConfig(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassConfig
	}
	return false
}

// IsInternal returns true if the error is classified as internal.
func IsInternal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassInternal
	}
	return false
}

// IsCode returns true if the error carries the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// KeyName extracts the offending key name from an error chain, if any.
func KeyName(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Key
	}
	return ""
}

// Common error codes.
const (
	// ErrCodeDuplicateKey signals a second key created with a name that
	// is already registered in the session.
	ErrCodeDuplicateKey = "DUPLICATE_KEY"

	// ErrCodeCyclicGraph signals a dependency cycle in the graph. The
	// error names the participating nodes.
	ErrCodeCyclicGraph = "CYCLIC_GRAPH"

	// ErrCodeParseFailure signals that one key's raw input failed its
	// descriptor's parser. Failures are collected per key.
	ErrCodeParseFailure = "PARSE_FAILURE"

	// ErrCodeUnresolvedKey signals that evaluation reached a key with no
	// resolved cell after default filling. Always a defect in graph
	// construction, never a user-facing condition.
	ErrCodeUnresolvedKey = "UNRESOLVED_KEY"

	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternal      = "INTERNAL_ERROR"
)
