package citation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/docq-dev/docq/internal/domain/chunk"
)

func TestSnippet_Truncation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "below limit kept verbatim",
			content: strings.Repeat("a", 150),
			want:    strings.Repeat("a", 150),
		},
		{
			name:    "exactly at limit kept verbatim",
			content: strings.Repeat("a", SnippetLimit),
			want:    strings.Repeat("a", SnippetLimit),
		},
		{
			name:    "over limit cut to limit plus ellipsis",
			content: strings.Repeat("a", 250),
			want:    strings.Repeat("a", SnippetLimit) + ellipsis,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Snippet(tc.content)
			if got != tc.want {
				t.Errorf("Snippet() = %q (len %d), want %q", got, len(got), tc.want)
			}
		})
	}
}

func TestSnippet_CountsRunesNotBytes(t *testing.T) {
	// 250 two-byte runes must truncate at 200 runes without splitting one.
	content := strings.Repeat("é", 250)

	got := Snippet(content)

	if !strings.HasSuffix(got, ellipsis) {
		t.Fatal("expected ellipsis on a truncated snippet")
	}
	if n := utf8.RuneCountInString(strings.TrimSuffix(got, ellipsis)); n != SnippetLimit {
		t.Errorf("snippet rune count = %d, want %d", n, SnippetLimit)
	}
	if !utf8.ValidString(got) {
		t.Error("snippet must not split a rune")
	}
}

func TestFromHit(t *testing.T) {
	h := chunk.NewHit("doc-1", strings.Repeat("x", 300), 4, 0.87)

	c := FromHit(h, "Handbook")

	if c.DocumentID() != "doc-1" || c.DocumentTitle() != "Handbook" {
		t.Errorf("citation = %+v", c)
	}
	if c.ChunkIndex() != 4 || c.Similarity() != 0.87 {
		t.Errorf("index/similarity = %d/%g", c.ChunkIndex(), c.Similarity())
	}
	if c.Snippet() != strings.Repeat("x", SnippetLimit)+ellipsis {
		t.Errorf("snippet = %q", c.Snippet())
	}
}

func TestFromHit_EmptyTitleDefaults(t *testing.T) {
	h := chunk.NewHit("doc-1", "content", 0, 0.5)

	if c := FromHit(h, ""); c.DocumentTitle() != DefaultTitle {
		t.Errorf("title = %q, want %q", c.DocumentTitle(), DefaultTitle)
	}
}
