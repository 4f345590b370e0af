package app

import "fmt"

// LaunchError means the external executable could not be started at all.
type LaunchError struct {
	Executable string
	Err        error
}

func (err *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", err.Executable, err.Err)
}

func (err *LaunchError) Unwrap() error {
	return err.Err
}

// ProcessError means the external process exited with a non-zero code.
// Message holds the captured stderr or a generic text when stderr was empty.
type ProcessError struct {
	ExitCode int
	Message  string
}

func (err *ProcessError) Error() string {
	return err.Message
}

// DecodeError means the metadata document could not be parsed, even though
// the process itself exited cleanly.
type DecodeError struct {
	Err error
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode video metadata: %v", err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}
