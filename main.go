package main

import (
	"os"

	"github.com/firefly-engineering/ember-addon-tests/cmd"
	"github.com/firefly-engineering/ember-addon-tests/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
