package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dreamfront/internal/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	root := cli.NewRootCmd(cli.Options{})
	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("dreamfront version %s\n", version))

	if err := root.ExecuteContext(context.Background()); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
