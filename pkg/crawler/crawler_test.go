// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package crawler

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/metadatastore"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/progress"
	"github.com/klask-search/klask/pkg/provider"
)

type fakeIndex struct {
	mu      sync.Mutex
	docs    []model.IndexDocument
	commits int
}

func (f *fakeIndex) Upsert(doc model.IndexDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeIndex) Commit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

type fakeAdapter struct {
	contexts []provider.BranchContext
	errs     []error
	calls    int
	onCall   func()
}

func (a *fakeAdapter) Enumerate(ctx context.Context, repo model.RepositoryDescriptor) ([]provider.BranchContext, error) {
	a.calls++
	if a.onCall != nil {
		a.onCall()
	}
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		return nil, err
	}
	return a.contexts, nil
}

type recordingStore struct {
	metadatastore.Store
	mu      sync.Mutex
	updates []model.RepositoryDescriptor
}

func (s *recordingStore) Update(desc model.RepositoryDescriptor) error {
	s.mu.Lock()
	s.updates = append(s.updates, desc)
	s.mu.Unlock()
	return s.Store.Update(desc)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newCrawler(t *testing.T, index *fakeIndex, adapter provider.SourceAdapter) (*Crawler, *progress.Tracker, metadatastore.Store, model.RepositoryDescriptor) {
	t.Helper()
	tracker := progress.New()
	store := metadatastore.NewInMemoryStore()
	repo, err := store.Create(model.RepositoryDescriptor{Name: "r", Kind: model.SourceFileSystem, Enabled: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c := New(index, tracker, store, nil, quietLogger())
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	c.Register(model.SourceFileSystem, adapter)
	return c, tracker, store, repo
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return dir
}

func TestCrawlIndexesFilesystemBranch(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.go":  "package main\n",
		"notes.md": "# notes\n",
	})
	index := &fakeIndex{}
	adapter := &fakeAdapter{contexts: []provider.BranchContext{
		{Branch: "HEAD", RepositoryURL: dir, FilesystemRoot: dir},
	}}

	c, tracker, _, repo := newCrawler(t, index, adapter)

	record, err := c.Crawl(context.Background(), repo)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if record.Status != model.CrawlCompleted {
		t.Fatalf("status = %s, want completed", record.Status)
	}
	if len(index.docs) != 2 {
		t.Fatalf("indexed %d docs, want 2", len(index.docs))
	}
	if index.commits != 1 {
		t.Fatalf("commits = %d, want 1", index.commits)
	}
	if tracker.IsCrawling(repo.ID) {
		t.Fatal("expected terminal progress record")
	}
}

func TestEnumerateRetriesTransientFailures(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.go": "package main\n"})
	adapter := &fakeAdapter{
		errs: []error{klaskerrors.ErrSourceUnavailable, klaskerrors.ErrSourceUnavailable},
		contexts: []provider.BranchContext{
			{Branch: "HEAD", RepositoryURL: dir, FilesystemRoot: dir},
		},
	}
	c, _, _, repo := newCrawler(t, &fakeIndex{}, adapter)

	if _, err := c.Crawl(context.Background(), repo); err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if adapter.calls != 3 {
		t.Fatalf("Enumerate called %d times, want 3", adapter.calls)
	}
}

func TestEnumerateGivesUpAfterMaxAttempts(t *testing.T) {
	adapter := &fakeAdapter{errs: []error{
		klaskerrors.ErrSourceUnavailable,
		klaskerrors.ErrSourceUnavailable,
		klaskerrors.ErrSourceUnavailable,
	}}
	c, _, _, repo := newCrawler(t, &fakeIndex{}, adapter)

	record, err := c.Crawl(context.Background(), repo)
	if !klaskerrors.Is(err, klaskerrors.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if record.Status != model.CrawlFailed {
		t.Fatalf("status = %s, want failed", record.Status)
	}
	if adapter.calls != enumerateAttempts {
		t.Fatalf("Enumerate called %d times, want %d", adapter.calls, enumerateAttempts)
	}
}

func TestAuthFailureIsNotRetried(t *testing.T) {
	adapter := &fakeAdapter{errs: []error{klaskerrors.ErrSourceAuthFailed}}
	c, _, _, repo := newCrawler(t, &fakeIndex{}, adapter)

	_, err := c.Crawl(context.Background(), repo)
	if !klaskerrors.Is(err, klaskerrors.ErrSourceAuthFailed) {
		t.Fatalf("err = %v, want ErrSourceAuthFailed", err)
	}
	if adapter.calls != 1 {
		t.Fatalf("Enumerate called %d times, want 1", adapter.calls)
	}
}

func TestCancellationBeforeBranchProcessing(t *testing.T) {
	dir := writeTree(t, map[string]string{"main.go": "package main\n"})
	index := &fakeIndex{}

	var c *Crawler
	var tracker *progress.Tracker
	var repo model.RepositoryDescriptor
	adapter := &fakeAdapter{contexts: []provider.BranchContext{
		{Branch: "HEAD", RepositoryURL: dir, FilesystemRoot: dir},
	}}
	adapter.onCall = func() {
		// Trip the cancellation flag while the crawl is enumerating, the
		// same window a user-initiated cancel would land in.
		_ = tracker.Cancel(repo.ID)
	}

	c, tracker, _, repo = newCrawler(t, index, adapter)

	record, err := c.Crawl(context.Background(), repo)
	if !klaskerrors.Is(err, klaskerrors.ErrCancelledByUser) {
		t.Fatalf("err = %v, want ErrCancelledByUser", err)
	}
	if record.Status != model.CrawlCancelled {
		t.Fatalf("status = %s, want cancelled", record.Status)
	}
	if index.commits != 0 {
		t.Fatalf("commits = %d, want 0 (cancelled crawls do not commit)", index.commits)
	}
}

func TestResumeMarkerLifecycle(t *testing.T) {
	dirA := writeTree(t, map[string]string{"a.go": "package a\n"})
	dirB := writeTree(t, map[string]string{"b.go": "package b\n"})

	adapter := &fakeAdapter{contexts: []provider.BranchContext{
		{Branch: "main", Project: "proj-a", ParentProject: "group", RepositoryURL: dirA, FilesystemRoot: dirA},
		{Branch: "main", Project: "proj-b", ParentProject: "group", RepositoryURL: dirB, FilesystemRoot: dirB},
	}}

	tracker := progress.New()
	inner := metadatastore.NewInMemoryStore()
	store := &recordingStore{Store: inner}
	repo, err := store.Create(model.RepositoryDescriptor{Name: "g", Kind: model.SourceGitLab, Namespace: "group", Enabled: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c := New(&fakeIndex{}, tracker, store, nil, quietLogger())
	c.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	c.Register(model.SourceGitLab, adapter)

	if _, err := c.Crawl(context.Background(), repo); err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	var markers []string
	for _, u := range store.updates {
		markers = append(markers, u.LastProcessedProject)
	}
	want := []string{"proj-a", "proj-b", ""}
	if len(markers) != len(want) {
		t.Fatalf("updates = %v, want markers %v", markers, want)
	}
	for i := range want {
		if markers[i] != want[i] {
			t.Fatalf("marker[%d] = %q, want %q", i, markers[i], want[i])
		}
	}

	final, _ := store.Get(repo.ID)
	if final.LastProcessedProject != "" || final.CrawlStartedAt != nil {
		t.Fatal("expected resume state cleared after a successful crawl")
	}
}

func TestCrawlRefusesOverlap(t *testing.T) {
	c, tracker, _, repo := newCrawler(t, &fakeIndex{}, &fakeAdapter{})
	tracker.Start(repo.ID, repo.Name)

	_, err := c.Crawl(context.Background(), repo)
	if !klaskerrors.Is(err, klaskerrors.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestUnknownSourceKind(t *testing.T) {
	tracker := progress.New()
	store := metadatastore.NewInMemoryStore()
	repo, _ := store.Create(model.RepositoryDescriptor{Name: "r", Kind: model.SourceGit})

	c := New(&fakeIndex{}, tracker, store, nil, quietLogger())
	err := c.RunCrawl(context.Background(), repo, nil)
	if !klaskerrors.Is(err, klaskerrors.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}
