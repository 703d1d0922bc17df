package cmd

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/format"
)

var shells = []string{"bash", "fish", "powershell", "zsh"}

func newCompletion(root *cli.Parent) *cli.Terminal {
	return &cli.Terminal{
		Use:     "completion",
		Summary: "Generate the autocompletion script for the specified shell",
		Args:    []cli.Argument{{Name: "shell", Required: true}},
		Validate: func(ctx *cli.Context) error {
			if !slices.Contains(shells, ctx.Args[0]) {
				return cli.InvalidArgumentf("Invalid shell '%s'. The shell must be one of: %s.", ctx.Args[0], format.JoinNames(shells))
			}
			return nil
		},
		Run: func(ctx *cli.Context) cli.ExitStatus {
			if err := writeCompletion(ctx.Stdout, root, ctx.Args[0]); err != nil {
				return cli.ProcessingError.Exit().WithCause(err)
			}
			return cli.OK.Exit()
		},
	}
}

func writeCompletion(w io.Writer, root *cli.Parent, shell string) error {
	c := mirrorRoot(root)
	switch shell {
	case "bash":
		return c.GenBashCompletionV2(w, true)
	case "fish":
		return c.GenFishCompletion(w, true)
	case "powershell":
		return c.GenPowerShellCompletionWithDesc(w)
	case "zsh":
		return c.GenZshCompletion(w)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

// IsCompletionRequest reports whether args were sent by a generated
// completion script.
func IsCompletionRequest(args []string) bool {
	return len(args) > 0 && (args[0] == cobra.ShellCompRequestCmd || args[0] == cobra.ShellCompNoDescRequestCmd)
}

// Complete answers a completion request for the tree under root.
func Complete(w io.Writer, root *cli.Parent, args []string) error {
	c := mirrorRoot(root)
	c.SetOut(w)
	c.SetErr(io.Discard)
	c.SetArgs(args)
	return c.Execute()
}

// mirrorRoot builds a cobra tree with the shape of root. It only serves
// completion: none of its commands do anything when run.
func mirrorRoot(root *cli.Parent) *cobra.Command {
	c := mirror(root)
	cli.AddOptions(c.PersistentFlags(), cli.GlobalOptions)
	c.CompletionOptions.DisableDefaultCmd = true
	c.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	return c
}

func mirror(cmd cli.Command) *cobra.Command {
	c := &cobra.Command{
		Use:           cmd.Name(),
		Short:         cmd.Description(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cli.AddOptions(c.Flags(), cmd.Options())
	for _, o := range cmd.Options() {
		if o.Name == "as" || o.Name == "to" {
			err := c.RegisterFlagCompletionFunc(o.Name, cobra.FixedCompletions(format.Names(), cobra.ShellCompDirectiveNoFileComp))
			if err != nil {
				panic(fmt.Sprintf("completion for --%s of %s: %v", o.Name, cmd.Name(), err))
			}
		}
	}

	switch cmd := cmd.(type) {
	case *cli.Terminal:
		c.Hidden = cmd.Hidden
		c.Run = func(*cobra.Command, []string) {}
		if cmd.Use == "completion" {
			c.ValidArgs = shells
		}
	case *cli.Parent:
		for _, child := range cmd.Subcommands() {
			c.AddCommand(mirror(child))
		}
	}
	return c
}
