// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package github

import (
	"testing"

	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/provider"
)

func TestFilterAndResumeExcludes(t *testing.T) {
	repos := []provider.Repository{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	repo := model.RepositoryDescriptor{Exclude: model.ExclusionRules{Projects: []string{"b"}}}

	got := filterAndResume(repos, repo)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestFilterAndResumeSkipsThroughMarker(t *testing.T) {
	repos := []provider.Repository{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	repo := model.RepositoryDescriptor{LastProcessedProject: "a"}

	got := filterAndResume(repos, repo)
	if len(got) != 2 || got[0].Name != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestSplitOwnerRepo(t *testing.T) {
	owner, name, ok := splitOwnerRepo("golang/go")
	if !ok || owner != "golang" || name != "go" {
		t.Fatalf("got %q %q %v", owner, name, ok)
	}
	if _, _, ok := splitOwnerRepo("noslash"); ok {
		t.Fatal("expected ok=false for missing slash")
	}
}
