package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/digitsoft/authtoken-go/internal/cli/output"
	"github.com/digitsoft/authtoken-go/internal/core/domain"
)

// TokenCommand returns the token management command tree.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue, inspect and revoke access tokens",
		Subcommands: []*cli.Command{
			tokenIssueCommand(),
			tokenGetCommand(),
			tokenListCommand(),
			tokenVerifyCommand(),
			tokenRegenerateCommand(),
			tokenRevokeCommand(),
			tokenRevokeUserCommand(),
		},
	}
}

func tokenIssueCommand() *cli.Command {
	return &cli.Command{
		Name:  "issue",
		Usage: "issue a new access token",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "user id (0 issues a guest token)",
			},
			&cli.StringFlag{
				Name:  "client",
				Usage: "client id (defaults to the configured client)",
			},
			&cli.Int64Flag{
				Name:  "ttl",
				Usage: "lifetime in seconds (0 or unset applies the configured default)",
			},
		},
		Action: func(c *cli.Context) error {
			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			var ttl *int64
			if v := c.Int64("ttl"); v > 0 {
				ttl = domain.Int64(v)
			}

			t, err := stack.factory.CreateFor(c.Context, c.Int64("user"), c.String("client"), ttl)
			if err != nil {
				return cli.Exit(fmt.Sprintf("issue token: %v", err), 1)
			}
			return printToken(c, t)
		},
	}
}

func tokenGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "show a token record",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: token get <token>", 2)
			}

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			t, err := stack.store.Token(c.Context, c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup token: %v", err), 1)
			}
			if t == nil {
				return cli.Exit("token not found", 1)
			}
			return printToken(c, t)
		},
	}
}

func tokenListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list tokens, either for one user or every stored token id",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "list the tokens of this user id",
			},
		},
		Action: func(c *cli.Context) error {
			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			if c.IsSet("user") {
				tokens, err := stack.store.UserTokens(c.Context, c.Int64("user"))
				if err != nil {
					return cli.Exit(fmt.Sprintf("list user tokens: %v", err), 1)
				}
				return printTokens(c, tokens)
			}

			ids, err := stack.store.TokenIDs(c.Context)
			if err != nil {
				return cli.Exit(fmt.Sprintf("list tokens: %v", err), 1)
			}
			return formatter(c).Format(c.App.Writer, map[string]any{
				"count":  len(ids),
				"tokens": ids,
			})
		},
	}
}

func tokenVerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check a token's structure and storage state",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: token verify <token>", 2)
			}
			id := c.Args().First()

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			if !stack.codec.Validate(id) {
				return cli.Exit("token malformed", 1)
			}

			t, err := stack.store.Token(c.Context, id)
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup token: %v", err), 1)
			}
			if t == nil {
				return cli.Exit("token unknown", 1)
			}
			if t.IsExpired() {
				return cli.Exit("token expired", 1)
			}

			fmt.Fprintln(c.App.Writer, "token valid")
			return printToken(c, t)
		},
	}
}

func tokenRegenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "regenerate",
		Usage:     "replace a token string, keeping user, client and session",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: token regenerate <token>", 2)
			}

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			t, err := stack.store.Token(c.Context, c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup token: %v", err), 1)
			}
			if t == nil {
				return cli.Exit("token not found", 1)
			}

			if err := t.Regenerate(c.Context, true); err != nil {
				return cli.Exit(fmt.Sprintf("regenerate token: %v", err), 1)
			}
			return printToken(c, t)
		},
	}
}

func tokenRevokeCommand() *cli.Command {
	return &cli.Command{
		Name:      "revoke",
		Usage:     "delete a token record and its index entry",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: token revoke <token>", 2)
			}
			id := c.Args().First()

			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			t, err := stack.store.Token(c.Context, id)
			if err != nil {
				return cli.Exit(fmt.Sprintf("lookup token: %v", err), 1)
			}
			if t == nil {
				// The record may be gone while the index entry lingers.
				t = &domain.AccessToken{Token: id}
			}
			if err := stack.store.RemoveToken(c.Context, t); err != nil {
				return cli.Exit(fmt.Sprintf("revoke token: %v", err), 1)
			}

			fmt.Fprintln(c.App.Writer, "token revoked")
			return nil
		},
	}
}

func tokenRevokeUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "revoke-user",
		Usage: "delete every token of a user",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "user id",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			stack, err := openStack(c)
			if err != nil {
				return err
			}
			defer stack.Close()

			removed, err := stack.store.RemoveUserTokens(c.Context, c.Int64("user"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("revoke user tokens: %v", err), 1)
			}

			fmt.Fprintf(c.App.Writer, "revoked %d token(s)\n", removed)
			return nil
		},
	}
}

// tokenView is the command-facing rendering of a token record.
type tokenView struct {
	Token     string `json:"token" yaml:"token"`
	UserID    int64  `json:"user_id" yaml:"user_id"`
	ClientID  string `json:"client_id" yaml:"client_id"`
	IssuedAt  string `json:"issued_at" yaml:"issued_at"`
	ExpiresAt string `json:"expires_at" yaml:"expires_at"`
	Expired   bool   `json:"expired" yaml:"expired"`
}

func viewOf(t *domain.AccessToken) tokenView {
	return tokenView{
		Token:     t.Token,
		UserID:    t.UserID,
		ClientID:  t.ClientID,
		IssuedAt:  fmtUnix(t.IssuedAt),
		ExpiresAt: fmtUnix(t.ExpiresAt),
		Expired:   t.IsExpired(),
	}
}

func fmtUnix(ts *int64) string {
	if ts == nil {
		return "never"
	}
	return time.Unix(*ts, 0).UTC().Format(time.RFC3339)
}

func printToken(c *cli.Context, t *domain.AccessToken) error {
	if c.String("output") == string(output.FormatTable) {
		table := &output.Table{}
		table.SetHeaders("TOKEN", "USER", "CLIENT", "ISSUED", "EXPIRES")
		v := viewOf(t)
		table.AddRow(v.Token, strconv.FormatInt(v.UserID, 10), v.ClientID, v.IssuedAt, v.ExpiresAt)
		return table.Render(c.App.Writer)
	}
	return formatter(c).Format(c.App.Writer, viewOf(t))
}

func printTokens(c *cli.Context, tokens []*domain.AccessToken) error {
	if c.String("output") == string(output.FormatTable) {
		table := &output.Table{}
		table.SetHeaders("TOKEN", "USER", "CLIENT", "ISSUED", "EXPIRES")
		for _, t := range tokens {
			v := viewOf(t)
			table.AddRow(v.Token, strconv.FormatInt(v.UserID, 10), v.ClientID, v.IssuedAt, v.ExpiresAt)
		}
		return table.Render(c.App.Writer)
	}

	views := make([]tokenView, len(tokens))
	for i, t := range tokens {
		views[i] = viewOf(t)
	}
	return formatter(c).Format(c.App.Writer, views)
}
