package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

// Verbosity controls how much the reporting steps print.
type Verbosity int

const (
	Normal Verbosity = iota
	Quiet            // errors only
)

// Context is handed to every command of a resolved chain.
type Context struct {
	Exec     string
	Commands []Command
	// Args are the positional arguments left after option parsing.
	Args []string

	Flags     *pflag.FlagSet
	Logger    *log.Logger
	Verbosity Verbosity
	// ShowStackTrace asks reporters to include error causes.
	ShowStackTrace bool
	Color          bool

	Stdout io.Writer
	Stderr io.Writer
}

// Has reports whether the option name was supplied.
func (c *Context) Has(name string) bool {
	f := c.Flags.Lookup(name)
	return f != nil && f.Changed
}

// String returns the value of a single-value option, or "".
func (c *Context) String(name string) string {
	v, err := c.Flags.GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// Strings returns every value given to a repeatable option.
func (c *Context) Strings(name string) []string {
	v, err := c.Flags.GetStringArray(name)
	if err != nil {
		return nil
	}
	return v
}

// Quiet reports whether informational output is suppressed.
func (c *Context) Quiet() bool {
	return c.Verbosity == Quiet
}
