package cmd

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/profile"
)

const overwriteOption = "overwrite"

var overwriteOpt = cli.Option{Name: overwriteOption, Usage: "overwrite the destination if it exists"}

// checkSource rejects a positional file argument that cannot be read.
func checkSource(what, path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cli.InvalidArgumentf("The provided %s '%s' does not exist.", what, path)
	case err != nil:
		return cli.InvalidArgumentf("The provided %s '%s' is not readable.", what, path)
	case info.IsDir():
		return cli.InvalidArgumentf("The provided %s '%s' is not a file.", what, path)
	}
	return nil
}

// formatOption parses the value of a format option. A missing option
// yields the zero format.
func formatOption(ctx *cli.Context, name string, allowed ...format.Format) (format.Format, error) {
	if !ctx.Has(name) {
		return 0, nil
	}
	if len(allowed) == 0 {
		allowed = format.All()
	}
	f, err := format.Lookup(ctx.String(name))
	if err == nil {
		for _, a := range allowed {
			if a == f {
				return f, nil
			}
		}
	}
	return 0, cli.InvalidArgumentf("Invalid '--%s' argument. The format must be one of: %s.", name, formatNames(allowed))
}

func formatNames(formats []format.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name()
	}
	return format.JoinNames(names)
}

// destination returns the optional destination argument at index i.
func destination(ctx *cli.Context, i int) string {
	if len(ctx.Args) > i {
		return ctx.Args[i]
	}
	return ""
}

// checkDestination makes sure path can be written, creating its parent
// directory when needed. It returns a non-OK status otherwise.
func checkDestination(path string, overwrite bool) cli.ExitStatus {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.IsDir() {
			return cli.InvalidTarget.Exitf("The provided destination '%s' is a directory.", path)
		}
		if !overwrite {
			return cli.Fail.Exitf("The provided destination '%s' already exists and the --%s option was not provided.", path, overwriteOption)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return cli.InvalidTarget.Exit().WithCause(err)
		}
	default:
		return cli.InvalidTarget.Exit().WithCause(err)
	}
	return cli.OK.Exit()
}

// writeDestination writes to a temporary file next to path and renames it
// into place once write succeeds, so that a failure leaves path untouched.
func writeDestination(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// output writes to path, or to the command's stdout when path is empty.
func output(ctx *cli.Context, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(ctx.Stdout)
	}
	return writeDestination(path, write)
}

// loadFailure maps an error from loading or resolving path to a status.
func loadFailure(path string, err error) cli.ExitStatus {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cli.InputError.Exitf("The provided source file '%s' does not exist.", path)
	case errors.Is(err, format.ErrUndetectable):
		return cli.InputError.Exitf("The source file '%s' has an unrecognizable format. Use '--as' to specify the format. The format must be one of: %s.",
			path, formatNames(format.All())).WithCause(err)
	case errors.Is(err, document.ErrUnknownModel):
		return cli.InputError.Exitf("The source file '%s' does not hold a known model.", path).WithCause(err)
	case errors.Is(err, document.ErrUnsupported):
		return cli.Fail.Exit().WithCause(err)
	case errors.Is(err, profile.ErrResolution):
		return cli.ProcessingError.Exitf("Unable to resolve profile '%s'. %v", path, err).WithCause(err)
	}
	return cli.ProcessingError.Exit().WithCause(err)
}

// checkModel rejects a document of another model than want.
func checkModel(doc *document.Document, want string) cli.ExitStatus {
	if doc.Model != want {
		return cli.Fail.Exitf("The file '%s' holds a %s, not a %s.", doc.Path, doc.Model, want)
	}
	return cli.OK.Exit()
}

// generated is the status of a command that wrote path.
func generated(what string, path string) cli.ExitStatus {
	if path == "" {
		return cli.OK.Exit()
	}
	return cli.OK.Exitf("Generated %s file: %s", what, path)
}
