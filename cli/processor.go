package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Global option names.
const (
	HelpOption           = "help"
	NoColorOption        = "no-color"
	QuietOption          = "quiet"
	ShowStackTraceOption = "show-stack-trace"
	VersionOption        = "version"
)

// GlobalOptions are accepted by every command.
var GlobalOptions = []Option{
	{Name: HelpOption, Shorthand: "h", Usage: "display this help message"},
	{Name: NoColorOption, Usage: "do not colorize output"},
	{Name: QuietOption, Shorthand: "q", Usage: "minimize output to include only errors"},
	{Name: ShowStackTraceOption, Usage: "display the stack trace associated with an error"},
	{Name: VersionOption, Usage: "display the application version"},
}

// Processor resolves and runs commands from a static tree.
type Processor struct {
	Exec string
	Root *Parent

	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// NewProcessor returns a processor writing to the process streams.
func NewProcessor(exec string, root *Parent) *Processor {
	return &Processor{
		Exec:   exec,
		Root:   root,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
	}
}

// Process runs one invocation and returns its status. The status message
// has already been logged when Process returns.
func (p *Processor) Process(args []string) ExitStatus {
	if len(args) == 0 {
		color := colorEnabled(p.Stdout, false, p.Getenv)
		WriteHelp(p.Stdout, p.Exec, p.Root, nil, p.newFlagSet(nil), color)
		return InvalidCommand.Exit()
	}

	chain := Resolve(args, p.Root)

	argv := args
	if len(chain.Commands) > 0 {
		argv = chain.Args()
	}

	flags := p.newFlagSet(chain.Commands)
	parseErr := flags.Parse(argv)
	if parseErr == nil {
		parseErr = checkRequired(flags, chain.Commands)
	}

	ctx := p.newContext(flags, chain)
	if len(chain.Commands) > 0 {
		names := make([]string, len(chain.Commands))
		for i, c := range chain.Commands {
			names[i] = c.Name()
		}
		ctx.Logger.Debug("processing command chain", "chain", strings.Join(names, " -> "))
	}
	status := p.run(ctx, chain, parseErr)
	status.Log(ctx.Logger, ctx.ShowStackTrace)
	return status
}

func (p *Processor) run(ctx *Context, chain Chain, parseErr error) ExitStatus {
	if parseErr != nil {
		return p.invalidCommand(ctx, chain, parseErr.Error())
	}

	if ctx.Has(VersionOption) {
		p.writeVersion(ctx)
		return OK.Exit()
	}
	_, atParent := chain.Target.(*Parent)
	if ctx.Has(HelpOption) || (atParent && len(ctx.Args) == 0) {
		p.showHelp(ctx, chain)
		return OK.Exit()
	}

	for _, c := range chain.Commands {
		if err := c.ValidateOptions(ctx); err != nil {
			var invalid *InvalidArgumentError
			if !errors.As(err, &invalid) {
				return ProcessingError.Exit().WithCause(err)
			}
			return p.invalidCommand(ctx, chain, invalid.Message)
		}
	}

	var status ExitStatus
	switch target := chain.Target.(type) {
	case *Terminal:
		status = target.Run(ctx)
	case *Parent:
		status = InvalidCommand.Exitf("Unrecognized command '%s'.", ctx.Args[0])
	default:
		panic(fmt.Sprintf("unsupported command type %T", chain.Target))
	}
	if status.Code() == InvalidCommand {
		p.showHelp(ctx, chain)
	}
	return status
}

func (p *Processor) invalidCommand(ctx *Context, chain Chain, message string) ExitStatus {
	p.showHelp(ctx, chain)
	return InvalidCommand.Exitf("%s", message)
}

func (p *Processor) showHelp(ctx *Context, chain Chain) {
	WriteHelp(ctx.Stdout, p.Exec, chain.Target, chain.Commands, ctx.Flags, ctx.Color)
}

func (p *Processor) writeVersion(ctx *Context) {
	fmt.Fprintf(ctx.Stdout, "%s version %s built on %s on commit %s\n", p.Exec, Version, Date, Commit)
}

func (p *Processor) newContext(flags *pflag.FlagSet, chain Chain) *Context {
	has := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}
	verbosity := Normal
	if has(QuietOption) {
		verbosity = Quiet
	}
	noColor := has(NoColorOption)
	return &Context{
		Exec:           p.Exec,
		Commands:       chain.Commands,
		Args:           flags.Args(),
		Flags:          flags,
		Logger:         NewLogger(p.Stderr, verbosity, colorEnabled(p.Stderr, noColor, p.Getenv)),
		Verbosity:      verbosity,
		ShowStackTrace: has(ShowStackTraceOption),
		Color:          colorEnabled(p.Stdout, noColor, p.Getenv),
		Stdout:         p.Stdout,
		Stderr:         p.Stderr,
	}
}

// newFlagSet merges the global options with those of every command in the
// chain. When two levels declare the same name the first declaration wins.
func (p *Processor) newFlagSet(commands []Command) *pflag.FlagSet {
	flags := pflag.NewFlagSet(p.Exec, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.SortFlags = false
	AddOptions(flags, GlobalOptions)
	for _, c := range commands {
		AddOptions(flags, c.Options())
	}
	return flags
}

// AddOptions declares opts on flags, skipping names already present.
func AddOptions(flags *pflag.FlagSet, opts []Option) {
	for _, o := range opts {
		if flags.Lookup(o.Name) != nil {
			continue
		}
		if o.Shorthand != "" && flags.ShorthandLookup(o.Shorthand) != nil {
			o.Shorthand = ""
		}
		switch {
		case o.Repeatable:
			flags.StringArrayP(o.Name, o.Shorthand, nil, o.Usage)
		case o.HasArg:
			flags.StringP(o.Name, o.Shorthand, "", o.Usage)
		default:
			flags.BoolP(o.Name, o.Shorthand, false, o.Usage)
		}
	}
}

func checkRequired(flags *pflag.FlagSet, commands []Command) error {
	var missing []string
	for _, c := range commands {
		for _, o := range c.Options() {
			if o.Required && !flags.Changed(o.Name) {
				missing = append(missing, "--"+o.Name)
			}
		}
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("missing required option: %s", missing[0])
	default:
		return fmt.Errorf("missing required options: %s", strings.Join(missing, ", "))
	}
}
