package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a session failure.
type ErrorKind int

const (
	KindUnclassifiedError ErrorKind = iota
	KindConnectionError
	KindQueryError
	KindEncodingError
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectionError:
		return "connection error"
	case KindQueryError:
		return "query error"
	case KindEncodingError:
		return "encoding error"
	default:
		return "unclassified error"
	}
}

// Sentinels for errors.Is against a *SessionError.
var (
	ErrConnection   = errors.New("connection error")
	ErrQuery        = errors.New("query error")
	ErrEncoding     = errors.New("encoding error")
	ErrUnclassified = errors.New("unclassified error")
)

// genericDescription is used when neither the provider nor the wrapped error
// supplies any text.
const genericDescription = "no description available"

// ProviderError is the failure shape returned by data source collaborators.
// Code and Description are copied out of the provider's diagnostics at the
// failure site so they stay valid after the provider is torn down.
type ProviderError struct {
	Code        string
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	desc := e.Description
	if desc == "" && e.Err != nil {
		desc = e.Err.Error()
	}
	if e.Code == "" {
		return desc
	}
	return fmt.Sprintf("%s (code %s)", desc, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SessionError is the single classified error a QuerySession surfaces.
type SessionError struct {
	Kind        ErrorKind
	Code        string
	Description string
	Err         error
}

func (e *SessionError) Error() string {
	desc := e.Description
	if desc == "" {
		desc = genericDescription
	}
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Kind, desc)
	}
	return fmt.Sprintf("%s (code %s): %s", e.Kind, e.Code, desc)
}

func (e *SessionError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *SessionError) Is(target error) bool {
	switch target {
	case ErrConnection:
		return e.Kind == KindConnectionError
	case ErrQuery:
		return e.Kind == KindQueryError
	case ErrEncoding:
		return e.Kind == KindEncodingError
	case ErrUnclassified:
		return e.Kind == KindUnclassifiedError
	}
	return false
}

// classifyError wraps err as a SessionError of kind, lifting the provider code and
// description when err carries a *ProviderError. An existing *SessionError is
// returned as is.
func classifyError(kind ErrorKind, err error) *SessionError {
	if err == nil {
		return nil
	}
	var se *SessionError
	if errors.As(err, &se) {
		return se
	}
	out := &SessionError{Kind: kind, Err: err}
	var pe *ProviderError
	if errors.As(err, &pe) {
		out.Code = pe.Code
		out.Description = pe.Description
		if out.Description == "" && pe.Err != nil {
			out.Description = pe.Err.Error()
		}
		return out
	}
	out.Description = err.Error()
	return out
}

// EncodingError reports text that cannot be converted to the canonical
// encoding.
func EncodingError(format string, args ...any) *SessionError {
	return &SessionError{
		Kind:        KindEncodingError,
		Description: fmt.Sprintf(format, args...),
	}
}

// Diagnostic returns the one-line diagnostic written for a failed session.
// The provider's original description is included when available.
func Diagnostic(err error) string {
	if err == nil {
		return ""
	}
	var se *SessionError
	if errors.As(err, &se) {
		return se.Error()
	}
	return classifyError(KindUnclassifiedError, err).Error()
}
