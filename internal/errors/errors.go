package errors

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
)

type BotErrorType int

// New wraps err with the given code. The message is taken from err verbatim.
func New(code BotErrorType, err error) BotError {
	return BotError{Err: err, Message: err.Error(), Code: code}
}

// Newf formats a message and wraps it with the given code.
func Newf(code BotErrorType, format string, a ...interface{}) BotError {
	return New(code, fmt.Errorf(format, a...))
}

// Create returns the predefined error for code.
func Create(code BotErrorType) BotError {
	e, ok := errMap[code]
	if !ok {
		e = unknown
	}
	e.Code = code
	e.Message = e.Err.Error()
	return e
}

type BotError struct {
	Message string       `json:"message"`
	Err     error        `json:"-"`
	Code    BotErrorType `json:"code"`
}

func (e BotError) Error() string {
	j, err := json.Marshal(&e)
	if err != nil {
		return e.Message
	}
	return string(j)
}

func (e BotError) Unwrap() error {
	return e.Err
}

// Is matches any BotError carrying the same code.
func (e BotError) Is(target error) bool {
	t, ok := target.(BotError)
	return ok && t.Code == e.Code
}

// Class returns the error class (the thousand range) of the code.
func (t BotErrorType) Class() BotErrorType {
	return t - t%1000
}

// Code extracts the BotErrorType of err, or UnknownError if err is not a BotError.
func Code(err error) BotErrorType {
	var e BotError
	if goerrors.As(err, &e) {
		return e.Code
	}
	return UnknownError
}

// Is reports whether err carries code.
func Is(err error, code BotErrorType) bool {
	return err != nil && Code(err) == code
}

// InClass reports whether err belongs to the class of code.
func InClass(err error, class BotErrorType) bool {
	return err != nil && Code(err).Class() == class.Class()
}

// Recoverable errors re-prompt the user in the current step.
func Recoverable(err error) bool {
	return InClass(err, ClassificationError) || InClass(err, ValidationError)
}

// Message returns the user facing message of err.
func Message(err error) string {
	var e BotError
	if goerrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
