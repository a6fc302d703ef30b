package query

import (
	"strings"
	"testing"

	"github.com/klask-search/klask/pkg/model"
)

func TestSnippetFindsTerm(t *testing.T) {
	content := strings.Repeat("x", 150) + "needle" + strings.Repeat("y", 150)
	snippet := Snippet("needle", content)

	if !strings.Contains(snippet, "needle") {
		t.Fatalf("snippet missing term: %q", snippet)
	}
	if len(snippet) > 2*snippetWindow+len("needle")+1 {
		t.Fatalf("snippet too long: %d chars", len(snippet))
	}
}

func TestSnippetFallback(t *testing.T) {
	content := strings.Repeat("a", 300)
	snippet := Snippet("notfound", content)

	if !strings.HasSuffix(snippet, "…") {
		t.Fatalf("expected ellipsis fallback, got %q", snippet[len(snippet)-10:])
	}
}

func TestSnippetShortContentNoEllipsis(t *testing.T) {
	content := "short content"
	snippet := Snippet("notfound", content)
	if snippet != content {
		t.Fatalf("expected unmodified short content, got %q", snippet)
	}
}

func TestFacetsCounts(t *testing.T) {
	hits := []model.SearchHit{
		{Document: model.IndexDocument{Project: "p1", Version: "main", Extension: "go"}},
		{Document: model.IndexDocument{Project: "p1", Version: "main", Extension: "py"}},
		{Document: model.IndexDocument{Project: "p2", Version: "dev", Extension: "go"}},
	}

	facets := Facets(hits)
	if len(facets.Projects) != 2 {
		t.Fatalf("expected 2 project facets, got %d", len(facets.Projects))
	}
	if facets.Projects[0].Value != "p1" || facets.Projects[0].Count != 2 {
		t.Fatalf("expected p1 to lead with count 2, got %+v", facets.Projects[0])
	}
}

func TestWhitelist(t *testing.T) {
	if got := whitelist(""); got != nil {
		t.Fatalf("expected nil for empty filter, got %v", got)
	}
	got := whitelist("a, b,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
