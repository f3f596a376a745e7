package stringutil

import (
	"strings"
	"testing"
)

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "hypertension guidelines", max: 150, want: "hypertension guidelines"},
		{name: "cut mid word", in: "alpha beta gamma", max: 13, want: "alpha beta"},
		{name: "cut at space", in: "alpha beta gamma", max: 10, want: "alpha beta"},
		{name: "single long word is kept whole", in: "abcdefghij", max: 4, want: "abcdefghij"},
		{name: "long first word keeps only that word", in: "abcdefghij klm", max: 4, want: "abcdefghij"},
		{name: "multibyte", in: "élan vital ünique", max: 12, want: "élan vital"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateAtWord(tc.in, tc.max); got != tc.want {
				t.Fatalf("TruncateAtWord(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateAddsEllipsis(t *testing.T) {
	got := Truncate(strings.Repeat("word ", 20), 12)
	if got != "word word..." {
		t.Fatalf("unexpected truncate result: %q", got)
	}
}

func TestStripMarkup(t *testing.T) {
	got := StripMarkup("Updated <strong>hypertension</strong> &amp; **blood pressure**\n  guidance")
	if got != "Updated hypertension & blood pressure guidance" {
		t.Fatalf("unexpected stripped text: %q", got)
	}
	if got := StripMarkup("*plain*"); got != "plain" {
		t.Fatalf("unexpected emphasis strip: %q", got)
	}
}

func TestSplitCSVAndEnvOr(t *testing.T) {
	parts := SplitCSV(" brave, ,exa ,")
	if len(parts) != 2 || parts[0] != "brave" || parts[1] != "exa" {
		t.Fatalf("unexpected split: %#v", parts)
	}
	if EnvOr("keep", "  ") != "keep" || EnvOr("keep", " new ") != "new" {
		t.Fatalf("unexpected EnvOr behavior")
	}
	if FirstNonEmpty("", "  ", "x") != "x" {
		t.Fatalf("unexpected FirstNonEmpty behavior")
	}
}
