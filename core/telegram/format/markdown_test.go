package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		in      string
		version int
		want    string
	}{
		{"plain title", MarkdownV1, "plain title"},
		{"snake_case *bold* [x] `c`", MarkdownV1, "snake\\_case \\*bold\\* \\[x] \\`c\\`"},
		{"a.b-c!", MarkdownV2, "a\\.b\\-c\\!"},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, tc.version)
		if err != nil {
			t.Fatalf("escape %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("EscapeMarkdown(%q, %d) = %q, want %q", tc.in, tc.version, got, tc.want)
		}
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unknown version")
	}
}
