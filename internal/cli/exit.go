package cli

import "fmt"

// ExitError is an error that carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes.
const (
	exitFailure = 1
	exitGuard   = 3
)

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
