package cli

import "fmt"

// InvalidArgumentError is returned by ValidateOptions for bad user input.
// The processor turns it into INVALID_COMMAND and shows help.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

// InvalidArgumentf builds an InvalidArgumentError.
func InvalidArgumentf(format string, args ...any) error {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}
