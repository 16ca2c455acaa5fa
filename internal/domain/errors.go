package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrEntityNotFound marks a remote "Requested entity was not found" answer.
	// Providers wrap it so callers can classify without parsing messages.
	ErrEntityNotFound = errors.New("requested entity was not found")

	// ErrServiceUnavailable marks transport failures, throttling and 5xx answers.
	ErrServiceUnavailable = errors.New("generation service unavailable")
)

// ErrorKind enumerates the failure taxonomy of a generation request.
type ErrorKind string

const (
	ErrorMissingCredential ErrorKind = "missing_credential"
	ErrorInvalidCredential ErrorKind = "invalid_credential"
	ErrorValidation        ErrorKind = "validation_error"
	ErrorTransient         ErrorKind = "transient_service_error"
	ErrorNoOutput          ErrorKind = "no_output_produced"
	ErrorDownloadFailed    ErrorKind = "download_failed"
	ErrorUnknown           ErrorKind = "unknown"
)

var defaultMessages = map[ErrorKind]string{
	ErrorMissingCredential: "API key not found. Please select an API key.",
	ErrorInvalidCredential: "API key is invalid. Please select a valid API key and try again.",
	ErrorValidation:        "invalid generation request",
	ErrorTransient:         "generation service is temporarily unavailable",
	ErrorNoOutput:          "generation finished without producing any output",
	ErrorDownloadFailed:    "failed to fetch the generated media",
	ErrorUnknown:           "an unknown error occurred",
}

// Sentinels usable with errors.Is; they match any JobError of the same kind.
var (
	ErrMissingCredential = &JobError{Kind: ErrorMissingCredential}
	ErrInvalidCredential = &JobError{Kind: ErrorInvalidCredential}
	ErrValidation        = &JobError{Kind: ErrorValidation}
	ErrTransient         = &JobError{Kind: ErrorTransient}
	ErrNoOutput          = &JobError{Kind: ErrorNoOutput}
	ErrDownloadFailed    = &JobError{Kind: ErrorDownloadFailed}
	ErrUnknown           = &JobError{Kind: ErrorUnknown}
)

// JobError is the terminal, classified failure of a generation request.
type JobError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewJobError builds a classified error. An empty message falls back to the
// wrapped error's text, then to the kind's default wording.
func NewJobError(kind ErrorKind, message string, err error) *JobError {
	return &JobError{Kind: kind, Message: message, Err: err}
}

// Validationf reports a request that must not reach the network.
func Validationf(format string, args ...any) *JobError {
	return &JobError{Kind: ErrorValidation, Message: fmt.Sprintf(format, args...)}
}

func (e *JobError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if msg, ok := defaultMessages[e.Kind]; ok {
		return msg
	}
	return string(e.Kind)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind.
func (e *JobError) Is(target error) bool {
	t, ok := target.(*JobError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the classification of err, or ErrorUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr.Kind
	}
	return ErrorUnknown
}

// AsJobError classifies err, keeping the original message for unclassified errors.
func AsJobError(err error) *JobError {
	if err == nil {
		return nil
	}
	var jobErr *JobError
	if errors.As(err, &jobErr) {
		return jobErr
	}
	return &JobError{Kind: ErrorUnknown, Err: err}
}

// DefaultMessage returns the canonical wording for kind.
func DefaultMessage(kind ErrorKind) string {
	if msg, ok := defaultMessages[kind]; ok {
		return msg
	}
	return defaultMessages[ErrorUnknown]
}

// ClassifyRemote maps an error returned by the remote service onto the
// taxonomy. Untagged errors become ErrorUnknown with their message preserved.
func ClassifyRemote(err error) *JobError {
	if err == nil {
		return nil
	}
	var jobErr *JobError
	switch {
	case errors.As(err, &jobErr):
		return jobErr
	case errors.Is(err, ErrEntityNotFound):
		return &JobError{Kind: ErrorInvalidCredential, Err: err, Message: DefaultMessage(ErrorInvalidCredential)}
	case errors.Is(err, ErrServiceUnavailable):
		return &JobError{Kind: ErrorTransient, Err: err}
	default:
		return &JobError{Kind: ErrorUnknown, Err: err}
	}
}
