package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
)

// Synopsis builds the usage line for target reached through commands.
func Synopsis(exec string, target Command, commands []Command) string {
	var sb strings.Builder
	sb.WriteString(exec)
	for _, c := range commands {
		sb.WriteString(" ")
		sb.WriteString(c.Name())
	}
	if p, ok := target.(*Parent); ok && len(p.Subcommands()) > 0 {
		if p.SubcommandOptional {
			sb.WriteString(" [<command>]")
		} else {
			sb.WriteString(" <command>")
		}
	}
	sb.WriteString(" [<options>]")
	for _, a := range target.Arguments() {
		sb.WriteString(" ")
		name := "<" + a.Name + ">"
		if a.Multiple {
			name += "..."
		}
		if !a.Required {
			name = "[" + name + "]"
		}
		sb.WriteString(name)
	}
	return sb.String()
}

// WriteHelp prints the usage of target: synopsis, description, option
// table and, for parents, the list of subcommands.
func WriteHelp(w io.Writer, exec string, target Command, commands []Command, flags *pflag.FlagSet, color bool) {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	bold := r.NewStyle().Bold(true)

	fmt.Fprintf(w, "usage: %s\n", Synopsis(exec, target, commands))
	if len(commands) > 0 && target.Description() != "" {
		fmt.Fprintf(w, "\n%s\n", target.Description())
	}
	if flags != nil {
		fmt.Fprintf(w, "\n%s", flags.FlagUsages())
	}

	p, ok := target.(*Parent)
	if !ok {
		return
	}
	visible := visibleSubcommands(p)
	if len(visible) == 0 {
		return
	}

	width := 0
	for _, c := range visible {
		if len(c.Name()) > width {
			width = len(c.Name())
		}
	}
	fmt.Fprintf(w, "\nThe following are available commands:\n")
	for _, c := range visible {
		name := fmt.Sprintf("%-*s", width, c.Name())
		fmt.Fprintf(w, "   %s %s\n", bold.Render(name), c.Description())
	}

	prefix := exec
	for _, c := range commands {
		prefix += " " + c.Name()
	}
	fmt.Fprintf(w, "\n'%s <command> --help' will show help on that specific command.\n", prefix)
}

func visibleSubcommands(p *Parent) []Command {
	var out []Command
	for _, c := range p.Subcommands() {
		if t, ok := c.(*Terminal); ok && t.Hidden {
			continue
		}
		out = append(out, c)
	}
	return out
}
