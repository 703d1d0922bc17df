package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode_Numbering(t *testing.T) {
	assert.Equal(t, 0, OK.StatusCode())
	assert.Equal(t, 1, Fail.StatusCode())
	assert.Equal(t, 2, InputError.StatusCode())
	assert.Equal(t, 3, InvalidCommand.StatusCode())
	assert.Equal(t, 4, InvalidTarget.StatusCode())
	assert.Equal(t, 5, ProcessingError.StatusCode())

	assert.False(t, OK.IsError())
	for _, c := range []ExitCode{Fail, InputError, InvalidCommand, InvalidTarget, ProcessingError} {
		assert.True(t, c.IsError(), c.String())
	}
	assert.Equal(t, "PROCESSING_ERROR", ProcessingError.String())
	assert.Equal(t, "ExitCode(42)", ExitCode(42).String())
}

type stringer struct{ calls *int }

func (s stringer) String() string {
	*s.calls++
	return "rendered"
}

func TestExitStatus_LazyMessage(t *testing.T) {
	calls := 0
	status := Fail.Exitf("value %s", stringer{&calls})
	assert.Equal(t, 0, calls)
	assert.Equal(t, "value rendered", status.Message())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "", OK.Exit().Message())
}

func TestExitStatus_WithCauseCopies(t *testing.T) {
	base := InputError.Exitf("bad input")
	cause := errors.New("boom")
	withCause := base.WithCause(cause)

	assert.Nil(t, base.Cause())
	assert.Same(t, cause, withCause.Cause())
	assert.Equal(t, InputError, withCause.Code())
}

func TestExitStatus_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Normal, false)

	cause := fmt.Errorf("outer: %w", errors.New("inner"))
	Fail.Exitf("it failed").WithCause(cause).Log(logger, false)
	assert.Contains(t, buf.String(), "ERROR")
	assert.Contains(t, buf.String(), "it failed")
	assert.NotContains(t, buf.String(), "inner")

	buf.Reset()
	Fail.Exitf("it failed").WithCause(cause).Log(logger, true)
	assert.Contains(t, buf.String(), "caused by: inner")

	buf.Reset()
	ProcessingError.Exit().WithCause(cause).Log(logger, false)
	assert.Contains(t, buf.String(), "outer: inner")

	buf.Reset()
	OK.Exit().Log(logger, true)
	assert.Empty(t, buf.String())
}

func TestNewLogger_QuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Quiet, false)
	logger.Info("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
