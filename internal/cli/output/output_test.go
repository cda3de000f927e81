package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "*output.JSONFormatter"},
		{FormatYAML, "*output.YAMLFormatter"},
		{FormatTable, "*output.TableFormatter"},
		{Format("bogus"), "*output.TableFormatter"},
	}

	for _, tt := range tests {
		f := NewFormatter(tt.format)
		if got := typeName(f); got != tt.want {
			t.Errorf("NewFormatter(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *JSONFormatter:
		return "*output.JSONFormatter"
	case *YAMLFormatter:
		return "*output.YAMLFormatter"
	case *TableFormatter:
		return "*output.TableFormatter"
	default:
		return "unknown"
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"token": "abc", "user_id": 42}

	if err := (&JSONFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["token"] != "abc" {
		t.Errorf("token = %v", decoded["token"])
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"user_id": 42}

	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if decoded["user_id"] != 42 {
		t.Errorf("user_id = %v", decoded["user_id"])
	}
}

func TestTable_Render(t *testing.T) {
	table := &Table{}
	table.SetHeaders("TOKEN", "USER")
	table.AddRow("tok-a", "1")
	table.AddRow("tok-b", "2")

	var buf bytes.Buffer
	if err := table.Render(&buf); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "TOKEN") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "tok-a") || !strings.Contains(lines[2], "tok-b") {
		t.Errorf("rows missing:\n%s", buf.String())
	}
}

func TestTableFormatter_Fallback(t *testing.T) {
	// Non-table data falls back to JSON.
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"n": 1`) {
		t.Errorf("fallback output = %q", buf.String())
	}
}
