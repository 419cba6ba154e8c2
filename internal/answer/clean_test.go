package answer

import (
	"strings"
	"testing"
)

func TestCleanBulletsOntoOwnLines(t *testing.T) {
	in := "The leadership team: • Alice Wong - CEO • Boris Petrov - CTO • Carla Diaz - CFO"
	got := Clean(in)

	lines := strings.Split(got, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 bullet lines, got %d: %q", len(lines), got)
	}
	for i, line := range lines[1:] {
		if !strings.HasPrefix(line, "• ") {
			t.Errorf("line %d should start with a bullet: %q", i+1, line)
		}
	}
}

func TestCleanNumberedList(t *testing.T) {
	in := "Steps to deploy: 1. Build the image 2. Push to the registry 3. Roll out"
	got := Clean(in)

	for _, want := range []string{"\n1. Build", "\n2. Push", "\n3. Roll"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
}

func TestCleanKeepsDecimals(t *testing.T) {
	in := "Throughput improved by 3.5 times after the 2.0 release."
	if got := Clean(in); got != in {
		t.Errorf("decimal mangled: %q", got)
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "The **quarterly** numbers", "The quarterly numbers"},
		{"italic", "a *very* good result", "a very good result"},
		{"underscores", "the __final__ figure", "the final figure"},
		{"heading", "## Summary\nAll good.", "Summary\nAll good."},
		{"citations", "Revenue grew[1] by 4%[12].", "Revenue grew by 4%."},
		{"html tags", "Use <b>bold</b> text", "Use bold text"},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanLeadIn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Based on the provided context, the office opens at nine.", "The office opens at nine."},
		{"According to the context: the plan costs ten dollars.", "The plan costs ten dollars."},
		{"The context is mentioned later, based on the numbers.", "The context is mentioned later, based on the numbers."},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanCollapsesBlankLines(t *testing.T) {
	in := "First paragraph.\n\n\n\n\nSecond paragraph."
	want := "First paragraph.\n\nSecond paragraph."
	if got := Clean(in); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCleanBulletSpacing(t *testing.T) {
	in := "•    tight item one\n•  tight item two"
	got := Clean(in)
	if !strings.HasPrefix(got, "• tight item one") {
		t.Errorf("extra spacing kept: %q", got)
	}
	if !strings.Contains(got, "\n• tight item two") {
		t.Errorf("second item wrong: %q", got)
	}
}

func TestCleanWhitespaceOnly(t *testing.T) {
	if got := Clean("  \n\t "); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
