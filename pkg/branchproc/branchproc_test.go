// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package branchproc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/google/uuid"

	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/provider"
)

type fakeIndex struct {
	upserted []model.IndexDocument
	commits  int
}

func (f *fakeIndex) Upsert(doc model.IndexDocument) error {
	f.upserted = append(f.upserted, doc)
	return nil
}

func (f *fakeIndex) Commit() error {
	f.commits++
	return nil
}

func newTestRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	mustWrite(t, dir, "README.md", "hello world\n")
	mustWrite(t, dir, "src/main.go", "package main\n")
	mustWrite(t, dir, "image.bin", "\x00\x01\x02binary")

	for _, p := range []string{"README.md", "src/main.go", "image.bin"} {
		if _, err := wt.Add(p); err != nil {
			t.Fatalf("Add %s: %v", p, err)
		}
	}

	sig := &object.Signature{Name: "test", Email: "test@example.com"}
	if _, err := wt.Commit("initial", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return repo, dir
}

func mustWrite(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunGitBranch(t *testing.T) {
	repo, dir := newTestRepo(t)

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("CommitObject: %v", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}

	idx := &fakeIndex{}
	p := New(idx, nil)

	repoDescriptor := model.RepositoryDescriptor{ID: uuid.New(), Name: "myrepo", Kind: model.SourceGit, URL: dir}
	bc := provider.BranchContext{Branch: "master", RepositoryURL: dir, Tree: tree, Repo: repo}

	result, err := p.Run(nil, repoDescriptor, bc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesIndexed != 2 {
		t.Fatalf("FilesIndexed = %d, want 2 (README.md, src/main.go)", result.FilesIndexed)
	}
	if idx.commits != 1 {
		t.Fatalf("commits = %d, want 1", idx.commits)
	}
	if len(idx.upserted) != 2 {
		t.Fatalf("upserted = %d, want 2", len(idx.upserted))
	}
}

func TestRunCancellation(t *testing.T) {
	repo, dir := newTestRepo(t)
	head, _ := repo.Head()
	commit, _ := repo.CommitObject(head.Hash())
	tree, _ := commit.Tree()

	idx := &fakeIndex{}
	p := New(idx, nil)

	cancel := make(chan struct{})
	close(cancel)

	repoDescriptor := model.RepositoryDescriptor{ID: uuid.New(), Name: "myrepo", Kind: model.SourceGit, URL: dir}
	bc := provider.BranchContext{Branch: "master", RepositoryURL: dir, Tree: tree, Repo: repo}

	result, err := p.Run(cancel, repoDescriptor, bc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.Cancelled {
		t.Fatal("expected Cancelled = true")
	}
	if idx.commits != 0 {
		t.Fatal("expected no commit on cancellation")
	}
}

func TestRunFilesystemBranch(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, dir, "a.go", "package a\n")
	mustWrite(t, dir, "node_modules/skip.go", "package skip\n")

	idx := &fakeIndex{}
	p := New(idx, nil)

	repoDescriptor := model.RepositoryDescriptor{ID: uuid.New(), Name: "fsrepo", Kind: model.SourceFileSystem, URL: dir}
	bc := provider.BranchContext{Branch: "HEAD", RepositoryURL: dir, FilesystemRoot: dir}

	result, err := p.Run(nil, repoDescriptor, bc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FilesIndexed != 1 {
		t.Fatalf("FilesIndexed = %d, want 1", result.FilesIndexed)
	}
}
