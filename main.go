package main

import (
	"fmt"
	"os"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/cmd"
	"github.com/clems4ever/oscal-cli/model"
)

func main() {
	reg, err := model.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading the built-in models: %v\n", err)
		os.Exit(cli.ProcessingError.StatusCode())
	}
	root := cmd.NewRoot(reg)

	args := os.Args[1:]
	if cmd.IsCompletionRequest(args) {
		if err := cmd.Complete(os.Stdout, root, args); err != nil {
			os.Exit(cli.Fail.StatusCode())
		}
		return
	}

	status := cli.NewProcessor(cmd.Exec, root).Process(args)
	os.Exit(status.Code().StatusCode())
}
