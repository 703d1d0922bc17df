package cli

const endOfOptions = "--"

// Chain is the result of resolving raw arguments against the command tree.
type Chain struct {
	// Target is the deepest resolved command, or the root when nothing
	// matched.
	Target Command
	// Commands is the root-to-leaf path, root excluded.
	Commands []Command
	// Options holds the option-like tokens in input order. They are not
	// interpreted here.
	Options []string
	// Extra holds the positional tokens.
	Extra []string

	// terminated is the index in Extra of the first token seen after
	// "--", or -1.
	terminated int
}

// Args returns the tokens to parse: options, then positionals. Tokens that
// followed "--" stay positional.
func (c Chain) Args() []string {
	args := make([]string, 0, len(c.Options)+len(c.Extra)+1)
	args = append(args, c.Options...)
	if c.terminated < 0 || c.terminated >= len(c.Extra) {
		return append(args, c.Extra...)
	}
	args = append(args, c.Extra[:c.terminated]...)
	args = append(args, endOfOptions)
	return append(args, c.Extra[c.terminated:]...)
}

// Resolve walks args left to right against root without backtracking.
//
// Tokens beginning with "-" are collected as options. Other tokens are
// looked up as a child of the current command; the first miss stops command
// matching for the rest of the scan, so a later token that happens to name a
// subcommand is still positional. Everything after "--" is positional.
func Resolve(args []string, root *Parent) Chain {
	chain := Chain{Target: root, terminated: -1}
	var current Command = root
	matching := true
	terminated := false

	for _, arg := range args {
		switch {
		case terminated:
			chain.Extra = append(chain.Extra, arg)
		case arg == endOfOptions:
			terminated = true
			chain.terminated = len(chain.Extra)
		case len(arg) > 0 && arg[0] == '-':
			chain.Options = append(chain.Options, arg)
		default:
			if matching {
				if next, ok := lookup(current, arg); ok {
					chain.Commands = append(chain.Commands, next)
					current = next
					continue
				}
				matching = false
			}
			chain.Extra = append(chain.Extra, arg)
		}
	}
	chain.Target = current
	return chain
}
