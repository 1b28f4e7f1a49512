package core

import "github.com/pkg/errors"

// FieldError ties an error message to the request field that caused it.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports request data the service layer refused. The API
// renders Fields as a field-to-message map when present, otherwise Err alone.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// shutdown marks an error the web server cannot recover from, such as a lost
// database connection. The API error handler checks for it with IsShutdown
// and signals a graceful stop.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string { return s.message }

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
