package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	l.Info("token issued", "user_id", int64(42))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "token issued" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["user_id"] != float64(42) {
		t.Errorf("user_id = %v", entry["user_id"])
	}
}

func TestNew_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "text", Output: &buf})

	l.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output missing message: %q", buf.String())
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info line emitted below warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn line missing")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	SetLevel("debug")
	defer SetLevel("info")

	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}

	l.Debug("visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Error("debug line missing after SetLevel(debug)")
	}
}

func TestRedaction(t *testing.T) {
	longToken := strings.Repeat("a", 30) + "ZZZZ"

	tests := []struct {
		name    string
		key     string
		value   string
		want    string
		notWant string
	}{
		{"password fully redacted", "password", "hunter2", redactedValue, "hunter2"},
		{"secret fully redacted", "client_secret", "s3cr3t-value", redactedValue, "s3cr3t-value"},
		{"session fully redacted", "session", "blob-content", redactedValue, "blob-content"},
		{"token masked", "token", longToken, "aaaaaa...ZZZZ", longToken},
		{"short token hidden", "token", "short", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Level: "info", Format: "json", Output: &buf})

			l.Info("event", tt.key, tt.value)

			out := buf.String()
			if !strings.Contains(out, tt.want) {
				t.Errorf("output %q missing %q", out, tt.want)
			}
			if tt.notWant != "" && strings.Contains(out, tt.notWant) {
				t.Errorf("output %q leaks raw value", out)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	long := "abcdef0123456789abcdef0123456789"
	if got := MaskToken(long); got != "abcdef...6789" {
		t.Errorf("MaskToken() = %q", got)
	}
	if got := MaskToken("tiny"); got != "***" {
		t.Errorf("MaskToken(short) = %q, want ***", got)
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, key := range []string{"password", "Token", "api_token", "client_secret", "session_id"} {
		if !IsSensitiveKey(key) {
			t.Errorf("IsSensitiveKey(%q) = false", key)
		}
	}
	for _, key := range []string{"user_id", "client_id", "count"} {
		if IsSensitiveKey(key) {
			t.Errorf("IsSensitiveKey(%q) = true", key)
		}
	}
}
