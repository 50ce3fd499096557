package core

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// generic user-facing messages
const (
	MsgLoadFailed = "could not load data"
	MsgSaveFailed = "could not save changes"
)

var (
	ErrForbidden = errors.New("permission denied")
	ErrNotFound  = errors.New("not found")

	errInvalidInput = errors.New("invalid input")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err *ValidationError) Error() string {
	if len(err.Fields) > 0 {
		msgs := make([]string, 0, len(err.Fields))
		for _, fld := range err.Fields {
			msgs = append(msgs, fld.Field+": "+fld.Error)
		}
		return strings.Join(msgs, "; ")
	}
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err *ValidationError) FieldMap() map[string]string {
	flds := make(map[string]string, len(err.Fields))
	for _, fld := range err.Fields {
		flds[fld.Field] = fld.Error
	}
	return flds
}

// TransportError is returned when a request never produced a server response
// (network unreachable, timeout, cancelled...).
type TransportError struct {
	Op  string
	Err error
}

func (err *TransportError) Error() string {
	return err.Op + ": " + err.Err.Error()
}

func (err *TransportError) Unwrap() error { return err.Err }

// APIError is a non-2xx response from the backend.
// Message holds the backend's `message` field when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (err *APIError) Error() string {
	if msg := strings.TrimSpace(err.Message); msg != "" {
		return msg
	}
	if text := http.StatusText(err.StatusCode); text != "" {
		return fmt.Sprintf("http %d: %s", err.StatusCode, strings.ToLower(text))
	}
	return fmt.Sprintf("http %d", err.StatusCode)
}

func (err *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return err.StatusCode == http.StatusNotFound
	case ErrForbidden:
		return err.StatusCode == http.StatusForbidden
	}
	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// UserMessage renders err for display: validation and backend messages verbatim,
// everything else (transport failures included) as fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var (
		vErr   *ValidationError
		apiErr *APIError
	)
	switch {
	case errors.As(err, &vErr):
		if msg := vErr.Error(); msg != "" {
			return msg
		}
		return errInvalidInput.Error()
	case errors.As(err, &apiErr):
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return msg
		}
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	}
	return fallback
}
