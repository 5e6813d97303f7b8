package errx

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Code identifies one registered error, e.g. PROXY_INVALID_ACTION
type Code string

// Type is the broad category an error belongs to
type Type string

const (
	TypeValidation    Type = "VALIDATION"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeInternal      Type = "INTERNAL"
	TypeBadRequest    Type = "BAD_REQUEST"
	TypeExternal      Type = "EXTERNAL"    // gateway and other upstream failures
	TypeUnavailable   Type = "UNAVAILABLE" // storage or upstream not reachable
)

// Error is the error value shared by every package of the service
type Error struct {
	Code       Code           `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on Code so registry-built errors compare equal to each other
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a single detail to the error and returns the same error
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the wrapped error
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// WithMessage replaces the registered message
func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

// Print renders an error with its details on a single line, for logs
func Print(err error) string {
	if err == nil {
		return "nil"
	}

	var xerr *Error
	if !errors.As(err, &xerr) {
		return "Error: " + err.Error()
	}

	if len(xerr.Details) == 0 {
		return fmt.Sprintf("Error: %s, HTTP Status: %d", xerr.Error(), xerr.HTTPStatus)
	}

	keys := make([]string, 0, len(xerr.Details))
	for k := range xerr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, xerr.Details[k]))
	}
	return fmt.Sprintf("Error: %s, Details: {%s}, HTTP Status: %d",
		xerr.Error(), strings.Join(parts, ", "), xerr.HTTPStatus)
}

// IsCode checks if an error is an Error with a specific code
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsType checks if an error is an Error with a specific type
func IsType(err error, errType Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == errType
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 500
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Registry holds the error definitions of one package
type Registry struct {
	prefix    string
	errorDefs map[Code]*Error
}

// NewRegistry creates a new Registry with a prefix
func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix:    prefix,
		errorDefs: make(map[Code]*Error),
	}
}

// Register adds a definition and returns its prefixed code
func (r *Registry) Register(code Code, errType Type, httpStatus int, message string) Code {
	fullCode := Code(fmt.Sprintf("%s_%s", r.prefix, code))
	r.errorDefs[fullCode] = &Error{
		Code:       fullCode,
		Type:       errType,
		Message:    message,
		HTTPStatus: httpStatus,
	}
	return fullCode
}

// New creates a fresh copy of a registered error
func (r *Registry) New(code Code) *Error {
	if def, ok := r.errorDefs[code]; ok {
		return &Error{
			Code:       def.Code,
			Type:       def.Type,
			Message:    def.Message,
			HTTPStatus: def.HTTPStatus,
		}
	}
	return &Error{
		Code:       "UNKNOWN_ERROR",
		Type:       TypeInternal,
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewWithCause creates a registered error wrapping cause
func (r *Registry) NewWithCause(code Code, cause error) *Error {
	return r.New(code).WithCause(cause)
}

// Wrap wraps a plain error with a message and type
func Wrap(err error, message string, errType Type) *Error {
	if err == nil {
		return nil
	}

	var xerr *Error
	if errors.As(err, &xerr) {
		return &Error{
			Code:       xerr.Code,
			Type:       errType,
			Message:    message,
			Details:    xerr.Details,
			HTTPStatus: xerr.HTTPStatus,
			cause:      err,
		}
	}

	return &Error{
		Code:       Code(fmt.Sprintf("%s_ERROR", errType)),
		Type:       errType,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		cause:      err,
	}
}

// New creates an unregistered Error
func New(message string, errType Type) *Error {
	return &Error{
		Code:       Code(fmt.Sprintf("%s_ERROR", errType)),
		Type:       errType,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}
