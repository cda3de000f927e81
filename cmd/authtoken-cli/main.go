// Command authtoken-cli manages opaque access tokens from the terminal.
package main

import (
	"os"

	"github.com/digitsoft/authtoken-go/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
