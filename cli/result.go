package cli

import "fmt"

// CommandError carries the exit status of a command whose failure has already
// been reported on stderr. main exits with Code without printing Cause again.
type CommandError struct {
	Code  int
	Cause error
}

// NewCommandError returns a CommandError for a failure that was already
// rendered. cause may be nil when only the exit code matters.
func NewCommandError(code int, cause error) *CommandError {
	return &CommandError{Code: code, Cause: cause}
}

func (e *CommandError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Cause.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// ExitCode is the status main exits with.
func (e *CommandError) ExitCode() int {
	return e.Code
}

// CommandResult is the outcome of one check pass. The watch command keeps
// running after a failed pass, so the result is returned rather than exited on.
type CommandResult struct {
	ExitCode int
	Err      error
}

// Success is a passing check.
func Success() CommandResult {
	return CommandResult{ExitCode: 0}
}

// Failure is a failed check; err is rendered by the caller.
func Failure(err error) CommandResult {
	return CommandResult{ExitCode: 1, Err: err}
}
