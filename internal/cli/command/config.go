package command

import (
	"github.com/urfave/cli/v2"

	"github.com/digitsoft/authtoken-go/internal/cli/output"
	"github.com/digitsoft/authtoken-go/internal/infra/buildinfo"
)

// ConfigCommand returns the configuration inspection command tree.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "inspect the effective configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the merged configuration",
				Action: func(c *cli.Context) error {
					f := formatter(c)
					if _, ok := f.(*output.TableFormatter); ok {
						// Nested config reads poorly as a table.
						f = &output.YAMLFormatter{}
					}
					return f.Format(c.App.Writer, env(c).Config)
				},
			},
		},
	}
}

// VersionCommand returns the build information command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print build information",
		Action: func(c *cli.Context) error {
			return formatter(c).Format(c.App.Writer, buildinfo.Get())
		},
	}
}
