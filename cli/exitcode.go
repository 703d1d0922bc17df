package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// ExitCode is the outcome of a command. The order of the constants matters:
// OK is the only non-error code and later codes are more severe.
//
// The numeric values are returned to the operating system and are stable:
//
//	OK               0
//	FAIL             1
//	INPUT_ERROR      2
//	INVALID_COMMAND  3
//	INVALID_TARGET   4
//	PROCESSING_ERROR 5
type ExitCode int

const (
	OK ExitCode = iota
	Fail
	InputError
	InvalidCommand
	InvalidTarget
	ProcessingError
)

var exitCodeNames = [...]string{
	OK:              "OK",
	Fail:            "FAIL",
	InputError:      "INPUT_ERROR",
	InvalidCommand:  "INVALID_COMMAND",
	InvalidTarget:   "INVALID_TARGET",
	ProcessingError: "PROCESSING_ERROR",
}

func (c ExitCode) String() string {
	if c < 0 || int(c) >= len(exitCodeNames) {
		return fmt.Sprintf("ExitCode(%d)", int(c))
	}
	return exitCodeNames[c]
}

// StatusCode returns the value handed to os.Exit.
func (c ExitCode) StatusCode() int {
	return int(c)
}

// IsError reports whether the code is anything other than OK.
func (c ExitCode) IsError() bool {
	return c > OK
}

// Exit returns a status without a message.
func (c ExitCode) Exit() ExitStatus {
	return ExitStatus{code: c}
}

// Exitf returns a status whose message is rendered from format and args
// only when Message is called.
func (c ExitCode) Exitf(format string, args ...any) ExitStatus {
	return ExitStatus{code: c, format: format, args: args}
}

// ExitStatus is the immutable result of running a command.
type ExitStatus struct {
	code   ExitCode
	format string
	args   []any
	cause  error
}

// Code returns the exit code.
func (s ExitStatus) Code() ExitCode {
	return s.code
}

// Cause returns the error attached with WithCause, if any.
func (s ExitStatus) Cause() error {
	return s.cause
}

// WithCause returns a copy of the status carrying err. The code is unchanged.
func (s ExitStatus) WithCause(err error) ExitStatus {
	s.cause = err
	return s
}

// Message renders the message template. It returns "" when no message was set.
func (s ExitStatus) Message() string {
	if s.format == "" {
		return ""
	}
	if len(s.args) == 0 {
		return s.format
	}
	return fmt.Sprintf(s.format, s.args...)
}

// Log emits the status on logger: INFO for OK, ERROR otherwise. The cause is
// included only when withCause is set; without a message the cause's own
// text is used so that a failure is never silent.
func (s ExitStatus) Log(logger *log.Logger, withCause bool) {
	level := log.InfoLevel
	if s.code.IsError() {
		level = log.ErrorLevel
	}

	msg := s.Message()
	var keyvals []any
	if s.cause != nil {
		if withCause {
			keyvals = append(keyvals, "cause", causeChain(s.cause))
		} else if msg == "" {
			msg = s.cause.Error()
		}
	}
	if msg == "" && len(keyvals) == 0 {
		return
	}
	logger.Log(level, msg, keyvals...)
}

// causeChain renders every wrapped error on its own line.
func causeChain(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	for e := errors.Unwrap(err); e != nil; e = errors.Unwrap(e) {
		sb.WriteString("\n  caused by: ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}
