package serrors

import "fmt"

// BaseError is a coded error shared across service boundaries. The code is
// stable and machine-readable; the message is for operators, not end users.
type BaseError struct {
	Code    string
	Message string
}

func NewError(code, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return other.Code == e.Code
}

// Wrap attaches an underlying cause while keeping the stable code.
func (e *BaseError) Wrap(err error) error {
	if err == nil {
		return e
	}
	return &wrappedError{base: e, cause: err}
}

type wrappedError struct {
	base  *BaseError
	cause error
}

func (w *wrappedError) Error() string {
	return fmt.Sprintf("%s: %v", w.base.Error(), w.cause)
}

// Unwrap exposes both branches so errors.Is and errors.As reach the coded
// base as well as the underlying cause.
func (w *wrappedError) Unwrap() []error { return []error{w.base, w.cause} }
