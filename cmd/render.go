package cmd

import (
	"io"
	"os"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/model"
	"github.com/clems4ever/oscal-cli/render"
)

func newRender(reg *model.Registry, m *model.Model, summary string) *cli.Terminal {
	return &cli.Terminal{
		Use:     "render",
		Summary: summary,
		Opts:    []cli.Option{overwriteOpt},
		Args:    []cli.Argument{{Name: "source file", Required: true}, {Name: "destination file", Required: true}},
		Validate: func(ctx *cli.Context) error {
			return checkSource("source file", ctx.Args[0])
		},
		Run: func(ctx *cli.Context) cli.ExitStatus {
			source, dst := ctx.Args[0], ctx.Args[1]
			if status := checkDestination(dst, ctx.Has(overwriteOption)); status.Code().IsError() {
				return status
			}

			var status cli.ExitStatus
			if m.Name == "profile" {
				status = renderProfile(reg, source, dst)
			} else {
				status = renderCatalog(reg, source, dst)
			}
			if status.Code().IsError() {
				return status
			}
			return generated("HTML", dst)
		},
	}
}

func renderCatalog(reg *model.Registry, source, dst string) cli.ExitStatus {
	doc, err := reg.Context().NewLoader().Load(source, 0)
	if err != nil {
		return loadFailure(source, err)
	}
	if status := checkModel(doc, "catalog"); status.Code().IsError() {
		return status
	}
	err = writeDestination(dst, func(w io.Writer) error {
		return render.Catalog(w, doc)
	})
	if err != nil {
		return cli.ProcessingError.Exit().WithCause(err)
	}
	return cli.OK.Exit()
}

// renderProfile resolves the profile into a temporary XML catalog and
// renders that. The temporary file is always removed.
func renderProfile(reg *model.Registry, source, dst string) cli.ExitStatus {
	catalog, status := resolveProfile(reg, source, 0)
	if status.Code().IsError() {
		return status
	}

	tmp, err := os.CreateTemp("", "oscal-cli-resolved-*.xml")
	if err != nil {
		return cli.ProcessingError.Exit().WithCause(err)
	}
	defer os.Remove(tmp.Name())

	err = reg.Context().NewSerializer().Write(tmp, catalog, format.XML)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return cli.ProcessingError.Exit().WithCause(err)
	}
	return renderCatalog(reg, tmp.Name(), dst)
}
