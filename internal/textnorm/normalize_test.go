package textnorm

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"nbsp", "a\u00a0\u00a0b", "a b"},
		{"tabs and spaces", "a \t\t  b", "a b"},
		{"newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"keeps double newline", "a\n\nb", "a\n\nb"},
		{"crlf", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"trims", "  \n a b \n\t", "a b"},
		{"spaces break newline runs", "a\n \n \nb", "a\n \n \nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q): expected %q, got %q", tc.in, tc.want, got)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"  \t ",
		"line one\n\n\n\nline two\t\t tail  ",
		"\u3000全角\u3000スペース\u00a0\n\n\n",
		"a\r\rb\r\n",
		"mixed  \n \n \n end",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q vs %q", in, once, twice)
		}
		if strings.ContainsRune(once, '\u00a0') {
			t.Fatalf("nbsp left in %q", once)
		}
		if strings.Contains(once, "\t") || strings.Contains(once, "  ") {
			t.Fatalf("horizontal whitespace run left in %q", once)
		}
		if strings.Contains(once, "\n\n\n") {
			t.Fatalf("newline run left in %q", once)
		}
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	if got := Truncate("こんにちは", 3); got != "こんに" {
		t.Fatalf("expected 3 runes, got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("expected unchanged, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestLoose_IgnoresCasePunctuationAndSpacing(t *testing.T) {
	a := Loose("Hello, World! 「テスト」")
	b := Loose("hello world テスト")
	if a != b {
		t.Fatalf("expected equal loose forms, got %q and %q", a, b)
	}
	if Loose("Hello") == Loose("Help") {
		t.Fatalf("expected different loose forms")
	}
}
