package forward

import (
	"strings"
	"testing"
)

func TestRenderSubstitutesKnownPlaceholders(t *testing.T) {
	got := Render("{{subject}} from {{fromEmail}}", map[string]string{
		"subject":   "Hello",
		"fromEmail": "alice@example.com",
	})
	want := "Hello from alice@example.com"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := Render("{{subject}} {{missing}}", map[string]string{"subject": "Hi"})
	if got != "Hi {{missing}}" {
		t.Errorf("Render = %q, want unknown placeholder verbatim", got)
	}
}

func TestRenderNeverRescansSubstitutedText(t *testing.T) {
	// A value containing placeholder syntax must not be expanded again.
	got := Render("{{textBody}}", map[string]string{
		"textBody":  "ignore {{fromEmail}} please",
		"fromEmail": "attacker@example.com",
	})
	if got != "ignore {{fromEmail}} please" {
		t.Errorf("Render = %q, substituted text was rescanned", got)
	}
}

func TestRenderHandlesAdjacentAndDanglingBraces(t *testing.T) {
	values := map[string]string{"a": "1", "b": "2"}

	if got := Render("{{a}}{{b}}", values); got != "12" {
		t.Errorf("adjacent placeholders = %q, want 12", got)
	}
	if got := Render("{{a}", values); got != "{{a}" {
		t.Errorf("unterminated placeholder = %q, want verbatim", got)
	}
	if got := Render("}}{{a}}", values); got != "}}1" {
		t.Errorf("leading close braces = %q, want }}1", got)
	}
	if got := Render("", values); got != "" {
		t.Errorf("empty template = %q, want empty", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate(strings.Repeat("x", 20), 5); got != "xxxxx" {
		t.Errorf("truncate long = %q", got)
	}
	// Multi-byte characters are counted as runes, not bytes.
	if got := truncate("héllo wörld", 5); got != "héllo" {
		t.Errorf("truncate multibyte = %q, want héllo", got)
	}
}
