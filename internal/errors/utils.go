package errors

import (
	"errors"
	"strings"
)

// Wrap wraps an error with additional context, creating a FormifyError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *FormifyError {
	if err == nil {
		return nil
	}

	var fe *FormifyError
	if errors.As(err, &fe) {
		return &FormifyError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       fe,
			Context:     fe.Context,
			Field:       fe.Field,
			Recoverable: fe.Recoverable,
		}
	}

	return &FormifyError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeNetwork,
	}
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *FormifyError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *FormifyError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// CombineErrors joins non-nil errors into one, or returns nil.
func CombineErrors(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}

	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}

	messages := make([]string, len(nonNil))
	for i, err := range nonNil {
		messages[i] = err.Error()
	}

	return &FormifyError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Cause:       errors.Join(nonNil...),
		Recoverable: true,
	}
}
