package cmd

import (
	"io"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/model"
	"github.com/clems4ever/oscal-cli/profile"
)

func newResolve(reg *model.Registry) *cli.Terminal {
	return &cli.Terminal{
		Use:     "resolve",
		Summary: "Resolve the specified OSCAL Profile",
		Opts: []cli.Option{
			{Name: "as", HasArg: true, Usage: "source `FORMAT`: " + formatNames(format.All())},
			{Name: "to", HasArg: true, Required: true, Usage: "convert to `FORMAT`: " + formatNames(format.All())},
			overwriteOpt,
		},
		Args: []cli.Argument{{Name: "file to resolve", Required: true}, {Name: "destination file"}},
		Validate: func(ctx *cli.Context) error {
			if _, err := formatOption(ctx, "as"); err != nil {
				return err
			}
			if _, err := formatOption(ctx, "to"); err != nil {
				return err
			}
			return checkSource("source file", ctx.Args[0])
		},
		Run: func(ctx *cli.Context) cli.ExitStatus {
			return resolve(ctx, reg)
		},
	}
}

func resolve(ctx *cli.Context, reg *model.Registry) cli.ExitStatus {
	source, dst := ctx.Args[0], destination(ctx, 1)
	as, err := formatOption(ctx, "as")
	if err != nil {
		return cli.InvalidCommand.Exitf("%v", err)
	}
	to, err := formatOption(ctx, "to")
	if err != nil {
		return cli.InvalidCommand.Exitf("%v", err)
	}
	if dst != "" {
		if status := checkDestination(dst, ctx.Has(overwriteOption)); status.Code().IsError() {
			return status
		}
	}

	catalog, status := resolveProfile(reg, source, as)
	if status.Code().IsError() {
		return status
	}

	serializer := reg.Context().NewSerializer()
	err = output(ctx, dst, func(w io.Writer) error {
		return serializer.Write(w, catalog, to)
	})
	if err != nil {
		return cli.ProcessingError.Exit().WithCause(err)
	}
	return generated(to.Name(), dst)
}

// resolveProfile loads the profile at path and resolves it into a catalog.
func resolveProfile(reg *model.Registry, path string, declared format.Format) (*document.Document, cli.ExitStatus) {
	loader := reg.Context().NewLoader()
	doc, err := loader.Load(path, declared)
	if err != nil {
		return nil, loadFailure(path, err)
	}
	switch doc.Model {
	case "profile":
	case "catalog":
		return nil, cli.Fail.Exitf("The file '%s' is already a catalog.", path)
	default:
		return nil, checkModel(doc, "profile")
	}

	catalog, err := profile.NewResolver(loader).Resolve(doc)
	if err != nil {
		return nil, loadFailure(path, err)
	}
	return catalog, cli.OK.Exit()
}
