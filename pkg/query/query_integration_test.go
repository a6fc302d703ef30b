// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package query

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/searchindex"
)

func newEngine(t *testing.T, docs []model.IndexDocument) *Engine {
	t.Helper()
	index, err := searchindex.Open(t.TempDir() + "/index")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	for _, doc := range docs {
		if err := index.Upsert(doc); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if err := index.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return New(index)
}

func doc(content, project, version, ext string) model.IndexDocument {
	return model.IndexDocument{
		FileID:     uuid.New(),
		FileName:   "f." + ext,
		FilePath:   "src/f." + ext,
		Content:    content,
		Repository: project,
		Project:    project,
		Version:    version,
		Extension:  ext,
	}
}

func TestSearchReturnsSnippetHit(t *testing.T) {
	e := newEngine(t, []model.IndexDocument{
		doc("the quick brown fox", "p", "v", "rs"),
	})

	result, err := e.Search(model.SearchQuery{Text: "quick fox"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Total != 1 || len(result.Hits) != 1 {
		t.Fatalf("total = %d, hits = %d, want 1/1", result.Total, len(result.Hits))
	}
	if !strings.Contains(result.Hits[0].Snippet, "quick") {
		t.Fatalf("snippet %q missing term", result.Hits[0].Snippet)
	}
}

func TestSearchExtensionFilterWithFacets(t *testing.T) {
	e := newEngine(t, []model.IndexDocument{
		doc("alpha", "p", "v", "rs"),
		doc("beta", "p", "v", "py"),
		doc("gamma", "p", "v", "rs"),
	})

	result, err := e.Search(model.SearchQuery{
		Text:          "*",
		Extension:     "rs",
		IncludeFacets: true,
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("total = %d, want 2 (post-filter count)", result.Total)
	}
	if result.Facets == nil {
		t.Fatal("expected facets")
	}
	if len(result.Facets.Extensions) != 1 {
		t.Fatalf("extension facets = %+v, want only rs", result.Facets.Extensions)
	}
	if v := result.Facets.Extensions[0]; v.Value != "rs" || v.Count != 2 {
		t.Fatalf("extension facet = %+v, want rs/2", v)
	}
}

func TestSearchPagination(t *testing.T) {
	e := newEngine(t, []model.IndexDocument{
		doc("shared token one", "p", "v", "go"),
		doc("shared token two", "p", "v", "go"),
		doc("shared token three", "p", "v", "go"),
	})

	first, err := e.Search(model.SearchQuery{Text: "shared", Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(first.Hits) != 2 || first.Total != 3 {
		t.Fatalf("page 1: hits = %d total = %d, want 2/3", len(first.Hits), first.Total)
	}

	second, err := e.Search(model.SearchQuery{Text: "shared", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(second.Hits) != 1 {
		t.Fatalf("page 2: hits = %d, want 1", len(second.Hits))
	}
}

func TestGetByIDAndDocAddress(t *testing.T) {
	d := doc("lookup target", "p", "v", "go")
	e := newEngine(t, []model.IndexDocument{d})

	got, err := e.GetByID(d.FileID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Content != d.Content {
		t.Fatalf("content = %q, want %q", got.Content, d.Content)
	}

	byAddr, err := e.GetByDocAddress(searchindex.DocAddress(d.FileID))
	if err != nil {
		t.Fatalf("GetByDocAddress: %v", err)
	}
	if byAddr.FileID != d.FileID {
		t.Fatalf("id = %s, want %s", byAddr.FileID, d.FileID)
	}

	if _, err := e.GetByID(uuid.New()); !klaskerrors.Is(err, klaskerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFacetCacheMemoizes(t *testing.T) {
	e := newEngine(t, []model.IndexDocument{
		doc("alpha", "p1", "main", "go"),
		doc("beta", "p2", "main", "py"),
	})

	cache := NewFacetCache(e)
	first, err := cache.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(first.Projects) != 2 {
		t.Fatalf("projects = %+v, want 2 values", first.Projects)
	}

	again, err := cache.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(again.Extensions) != 2 {
		t.Fatalf("extensions = %+v, want 2 values", again.Extensions)
	}
}
