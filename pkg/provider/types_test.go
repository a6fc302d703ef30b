// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package provider

import (
	"testing"
	"time"
)

func TestRepository(t *testing.T) {
	now := time.Now()
	repo := &Repository{
		Name:          "test-repo",
		FullName:      "group/test-repo",
		CloneURL:      "https://gitlab.example.com/group/test-repo.git",
		DefaultBranch: "main",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if repo.Name != "test-repo" {
		t.Errorf("Name = %q, want %q", repo.Name, "test-repo")
	}
	if repo.FullName != "group/test-repo" {
		t.Errorf("FullName = %q, want %q", repo.FullName, "group/test-repo")
	}
}

func TestOrganization(t *testing.T) {
	org := &Organization{
		Name:        "test-group",
		Description: "A test group",
		URL:         "https://gitlab.example.com/test-group",
	}

	if org.Name != "test-group" {
		t.Errorf("Name = %q, want %q", org.Name, "test-group")
	}
}

func TestRateLimit(t *testing.T) {
	reset := time.Now().Add(time.Hour)
	rl := &RateLimit{
		Limit:     5000,
		Remaining: 4500,
		Reset:     reset,
	}

	if rl.Limit != 5000 {
		t.Errorf("Limit = %d, want 5000", rl.Limit)
	}
	if rl.Remaining != 4500 {
		t.Errorf("Remaining = %d, want 4500", rl.Remaining)
	}
}

func TestListOptions(t *testing.T) {
	opts := ListOptions{Page: 1, PerPage: 100}

	if opts.Page != 1 {
		t.Errorf("Page = %d, want 1", opts.Page)
	}
	if opts.PerPage != 100 {
		t.Errorf("PerPage = %d, want 100", opts.PerPage)
	}
}

func TestBranchContext(t *testing.T) {
	bc := BranchContext{
		Branch:        "main",
		ParentProject: "my-group",
		RepositoryURL: "https://gitlab.example.com/my-group/proj.git",
	}

	if bc.Branch != "main" {
		t.Errorf("Branch = %q, want %q", bc.Branch, "main")
	}
	if bc.ParentProject != "my-group" {
		t.Errorf("ParentProject = %q, want %q", bc.ParentProject, "my-group")
	}
}
