package command

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/digitsoft/authtoken-go/pkg/token"
)

// newTestApp returns the CLI app with output captured and the process-exit
// handler disabled so commands return their errors instead of exiting.
func newTestApp() (*cli.App, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	app := App()
	app.Writer = buf
	app.ErrWriter = io.Discard
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app, buf
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app, buf := newTestApp()
	err := app.Run(append([]string{"authtoken-cli", "--backend", "memory"}, args...))
	return buf.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	coder, ok := err.(cli.ExitCoder)
	if !ok {
		t.Fatalf("error %v is not an ExitCoder", err)
	}
	return coder.ExitCode()
}

func TestTokenIssue(t *testing.T) {
	out, err := run(t, "-o", "json", "token", "issue", "-u", "7")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	var view struct {
		Token     string `json:"token"`
		UserID    int64  `json:"user_id"`
		ClientID  string `json:"client_id"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	if view.UserID != 7 {
		t.Errorf("user_id = %d, want 7", view.UserID)
	}
	if view.ClientID != "api" {
		t.Errorf("client_id = %q, want api", view.ClientID)
	}
	if view.ExpiresAt == "never" {
		t.Error("default issuance should set an expiry")
	}

	codec, err := token.NewCodec(token.DefaultLength)
	if err != nil {
		t.Fatal(err)
	}
	if !codec.Validate(view.Token) {
		t.Errorf("issued token fails validation: %q", view.Token)
	}
}

func TestTokenIssueGuest(t *testing.T) {
	out, err := run(t, "-o", "json", "token", "issue")
	if err != nil {
		t.Fatalf("guest issue failed: %v", err)
	}
	if !strings.Contains(out, `"user_id": 0`) {
		t.Errorf("guest issue output = %s", out)
	}
}

func TestTokenVerifyMalformed(t *testing.T) {
	_, err := run(t, "token", "verify", "not-a-real-token")
	if err == nil {
		t.Fatal("expected an error for a malformed token")
	}
	if code := exitCode(t, err); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(err.Error(), "malformed") {
		t.Errorf("error = %v", err)
	}
}

func TestTokenGetUnknown(t *testing.T) {
	codec, err := token.NewCodec(token.DefaultLength)
	if err != nil {
		t.Fatal(err)
	}
	id, err := codec.Generate()
	if err != nil {
		t.Fatal(err)
	}

	_, runErr := run(t, "token", "get", id)
	if runErr == nil {
		t.Fatal("expected an error for an unknown token")
	}
	if !strings.Contains(runErr.Error(), "not found") {
		t.Errorf("error = %v", runErr)
	}
}

func TestTokenListEmpty(t *testing.T) {
	out, err := run(t, "-o", "json", "token", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, `"count": 0`) {
		t.Errorf("list output = %s", out)
	}
}

func TestTokenRevokeUserEmpty(t *testing.T) {
	out, err := run(t, "token", "revoke-user", "-u", "9")
	if err != nil {
		t.Fatalf("revoke-user failed: %v", err)
	}
	if !strings.Contains(out, "revoked 0 token(s)") {
		t.Errorf("output = %q", out)
	}
}

func TestSessionGetUnknownToken(t *testing.T) {
	codec, err := token.NewCodec(token.DefaultLength)
	if err != nil {
		t.Fatal(err)
	}
	id, err := codec.Generate()
	if err != nil {
		t.Fatal(err)
	}

	_, runErr := run(t, "session", "get", id)
	if runErr == nil {
		t.Fatal("expected an error for an unknown token")
	}
	if !strings.Contains(runErr.Error(), "not found") {
		t.Errorf("error = %v", runErr)
	}
}

func TestConfigShow(t *testing.T) {
	out, err := run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "backend: memory") {
		t.Errorf("config output missing backend:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "-o", "json", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, `"version"`) {
		t.Errorf("version output = %s", out)
	}
}

func TestUnknownBackendRejected(t *testing.T) {
	app, _ := newTestApp()
	err := app.Run([]string{"authtoken-cli", "--backend", "bolt", "token", "list"})
	if err == nil {
		t.Fatal("expected a config verification error")
	}
	if !strings.Contains(err.Error(), "backend") {
		t.Errorf("error = %v", err)
	}
}
