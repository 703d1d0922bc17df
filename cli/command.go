package cli

import (
	"fmt"
)

// Option declares a flag accepted by a command.
type Option struct {
	Name      string // long name, without dashes
	Shorthand string // optional one letter alias
	// HasArg marks options taking a value. Without it the option is a
	// unary switch.
	HasArg bool
	// Repeatable options may be given several times; their values are
	// collected in order.
	Repeatable bool
	Required   bool
	// Usage is the help text. A back-quoted word names the value,
	// e.g. "convert to `FORMAT`".
	Usage string
}

// Argument declares a positional argument.
type Argument struct {
	Name     string
	Required bool
	// Multiple allows the argument to absorb all remaining positionals.
	Multiple bool
}

// Command is a node of the command tree. It is either a *Terminal, which
// runs an operation, or a *Parent, which groups subcommands.
type Command interface {
	Name() string
	Description() string
	Options() []Option
	Arguments() []Argument
	// ValidateOptions checks the parsed options and arguments before any
	// command runs. A non-nil error is a user error.
	ValidateOptions(ctx *Context) error

	command()
}

// Terminal is a leaf command.
type Terminal struct {
	Use     string
	Summary string
	Opts    []Option
	Args    []Argument
	Hidden  bool

	// Validate runs after the positional arity check.
	Validate func(ctx *Context) error
	Run      func(ctx *Context) ExitStatus
}

func (t *Terminal) Name() string          { return t.Use }
func (t *Terminal) Description() string   { return t.Summary }
func (t *Terminal) Options() []Option     { return t.Opts }
func (t *Terminal) Arguments() []Argument { return t.Args }
func (t *Terminal) command()              {}

func (t *Terminal) ValidateOptions(ctx *Context) error {
	if err := CheckArguments(t, ctx.Args); err != nil {
		return err
	}
	if t.Validate != nil {
		return t.Validate(ctx)
	}
	return nil
}

// Parent groups subcommands. Lookups never fail loudly: an unknown name
// simply yields no match.
type Parent struct {
	Use     string
	Summary string
	Opts    []Option
	// SubcommandOptional marks parents that are meaningful without a
	// subcommand.
	SubcommandOptional bool
	Validate           func(ctx *Context) error

	children []Command
	byName   map[string]Command
}

// NewParent builds a parent holding children in declaration order.
func NewParent(name, description string, children ...Command) *Parent {
	p := &Parent{Use: name, Summary: description}
	for _, c := range children {
		p.Add(c)
	}
	return p
}

// Add registers c. Names are unique within a parent.
func (p *Parent) Add(c Command) {
	if p.byName == nil {
		p.byName = make(map[string]Command)
	}
	if _, dup := p.byName[c.Name()]; dup {
		panic(fmt.Sprintf("command %q registered twice under %q", c.Name(), p.Use))
	}
	p.byName[c.Name()] = c
	p.children = append(p.children, c)
}

// CommandByName returns the child called name.
func (p *Parent) CommandByName(name string) (Command, bool) {
	c, ok := p.byName[name]
	return c, ok
}

// Subcommands returns the children in declaration order.
func (p *Parent) Subcommands() []Command {
	return p.children
}

func (p *Parent) Name() string          { return p.Use }
func (p *Parent) Description() string   { return p.Summary }
func (p *Parent) Options() []Option     { return p.Opts }
func (p *Parent) Arguments() []Argument { return nil }
func (p *Parent) command()              {}

func (p *Parent) ValidateOptions(ctx *Context) error {
	if p.Validate != nil {
		return p.Validate(ctx)
	}
	return nil
}

// lookup resolves name below c. Terminals have no children.
func lookup(c Command, name string) (Command, bool) {
	if p, ok := c.(*Parent); ok {
		return p.CommandByName(name)
	}
	return nil, false
}

// CheckArguments enforces the positional shape declared by c.
func CheckArguments(c Command, args []string) error {
	decl := c.Arguments()
	required := 0
	variadic := false
	for _, a := range decl {
		if a.Required {
			required++
		}
		if a.Multiple {
			variadic = true
		}
	}
	if len(args) < required {
		missing := decl[len(args)]
		return InvalidArgumentf("The %s must be provided.", missing.Name)
	}
	if !variadic && len(args) > len(decl) {
		return InvalidArgumentf("Illegal number of arguments: expected at most %d, got %d.", len(decl), len(args))
	}
	return nil
}
