package app

import (
	"errors"
	"fmt"
	"strings"
)

type UserError struct {
	cause       error
	UserMessage string
}

func NewUserError(userMessage string) *UserError {
	return &UserError{UserMessage: userMessage}
}

func NewUserErrorf(format string, args ...interface{}) *UserError {
	return &UserError{UserMessage: fmt.Sprintf(format, args...)}
}

func (err *UserError) WithCause(cause error) *UserError {
	err.cause = cause
	return err
}

func (err *UserError) Error() string {
	msg := &strings.Builder{}
	_, _ = fmt.Fprintf(msg, "user error with message=%q", err.UserMessage)
	if err.cause != nil {
		_, _ = fmt.Fprintf(msg, " and cause err=%q", err.cause.Error())
	}
	return msg.String()
}

func (err *UserError) Unwrap() error {
	return err.cause
}

// FailureKind names the class of an operation failure for front-ends.
func FailureKind(err error) string {
	var (
		launchErr  *LaunchError
		processErr *ProcessError
		decodeErr  *DecodeError
	)
	switch {
	case errors.As(err, &launchErr):
		return "launch"
	case errors.As(err, &processErr):
		return "process"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	}
	return "internal"
}
