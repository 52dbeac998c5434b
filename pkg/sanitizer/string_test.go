package sanitizer

import (
	"regexp"
	"testing"
)

func TestCleanFreeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims whitespace", "  follow-up call  ", "follow-up call"},
		{"collapses runs", "quarterly   review\t\tmeeting", "quarterly review meeting"},
		{"strips control chars", "demo\x00\x1fsession", "demosession"},
		{"empty stays empty", "", ""},
		{"only whitespace", "   \t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFreeText(tt.input); got != tt.expected {
				t.Errorf("CleanFreeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanIdentifier(t *testing.T) {
	if got := CleanIdentifier("  Jason  "); got != "Jason" {
		t.Errorf("expected trimmed identifier, got %q", got)
	}
	if got := CleanIdentifier("Mary Ann"); got != "Mary Ann" {
		t.Errorf("inner whitespace must be preserved, got %q", got)
	}
}

func TestEscapeKeywordDefusesPatterns(t *testing.T) {
	malicious := "(a+)+b"
	escaped := EscapeKeyword(malicious)

	re, err := regexp.Compile(escaped)
	if err != nil {
		t.Fatalf("escaped keyword must compile: %v", err)
	}
	if !re.MatchString("(a+)+b") {
		t.Errorf("escaped keyword should match the literal text")
	}
	if re.MatchString("aaab") {
		t.Errorf("escaped keyword must not behave as a pattern")
	}
}

func TestEscapeKeywordPlainText(t *testing.T) {
	if got := EscapeKeyword("  standup  "); got != "standup" {
		t.Errorf("expected trimmed plain keyword, got %q", got)
	}
}
