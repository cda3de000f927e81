package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

// SessionCommand returns the session blob command tree. Session data is an
// opaque string attached to a token record; these commands read and write
// it directly through the store.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "manage the session blob attached to a token",
		Subcommands: []*cli.Command{
			sessionGetCommand(),
			sessionSetCommand(),
			sessionDestroyCommand(),
		},
	}
}

func loadToken(c *cli.Context, stack *appStack, id string) (*domain.AccessToken, error) {
	t, err := stack.store.Token(c.Context, id)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("lookup token: %v", err), 1)
	}
	if t == nil {
		return nil, cli.Exit("token not found", 1)
	}
	return t, nil
}

func sessionGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print the session blob of a token",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: session get <token>", 2)
			}

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			t, err := loadToken(c, stack, c.Args().First())
			if err != nil {
				return err
			}
			if t.Session == "" {
				return cli.Exit("no session data", 1)
			}

			fmt.Fprintln(c.App.Writer, t.Session)
			return nil
		},
	}
}

func sessionSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "replace the session blob of a token",
		ArgsUsage: "<token> <data>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: session set <token> <data>", 2)
			}

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			t, err := loadToken(c, stack, c.Args().First())
			if err != nil {
				return err
			}

			t.Session = c.Args().Get(1)
			if _, err := t.Save(c.Context); err != nil {
				return cli.Exit(fmt.Sprintf("save session: %v", err), 1)
			}

			fmt.Fprintln(c.App.Writer, "session stored")
			return nil
		},
	}
}

func sessionDestroyCommand() *cli.Command {
	return &cli.Command{
		Name:      "destroy",
		Usage:     "clear the session blob of a token",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: session destroy <token>", 2)
			}

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			t, err := loadToken(c, stack, c.Args().First())
			if err != nil {
				return err
			}
			if t.Session == "" {
				fmt.Fprintln(c.App.Writer, "no session data")
				return nil
			}

			t.Session = ""
			if _, err := t.Save(c.Context); err != nil {
				return cli.Exit(fmt.Sprintf("clear session: %v", err), 1)
			}

			fmt.Fprintln(c.App.Writer, "session destroyed")
			return nil
		},
	}
}
