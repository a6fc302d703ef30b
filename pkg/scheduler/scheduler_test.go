// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/klask-search/klask/pkg/metadatastore"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/progress"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (r *fakeRunner) RunCrawl(ctx context.Context, repo model.RepositoryDescriptor, cancel <-chan struct{}) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.err
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestComputeNextFromFrequency(t *testing.T) {
	s := New(metadatastore.NewInMemoryStore(), progress.New(), &fakeRunner{}, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	next, ok := s.computeNext(model.RepositoryDescriptor{FrequencyHours: 6}, now)
	if !ok {
		t.Fatal("expected a next-run time")
	}
	if !next.Equal(now.Add(6 * time.Hour)) {
		t.Fatalf("next = %v, want %v", next, now.Add(6*time.Hour))
	}
}

func TestComputeNextFromCron(t *testing.T) {
	s := New(metadatastore.NewInMemoryStore(), progress.New(), &fakeRunner{}, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	next, ok := s.computeNext(model.RepositoryDescriptor{CronExpr: "0 0 0 * * *"}, now)
	if !ok {
		t.Fatal("expected a next-run time")
	}
	if !next.After(now) {
		t.Fatalf("next = %v, want after %v", next, now)
	}
}

func TestComputeNextNoSchedule(t *testing.T) {
	s := New(metadatastore.NewInMemoryStore(), progress.New(), &fakeRunner{}, time.Minute)
	if _, ok := s.computeNext(model.RepositoryDescriptor{}, time.Now()); ok {
		t.Fatal("expected no next-run time without cron or frequency")
	}
}

func TestFireSkipsWhenAlreadyCrawling(t *testing.T) {
	store := metadatastore.NewInMemoryStore()
	tracker := progress.New()
	runner := &fakeRunner{}
	s := New(store, tracker, runner, time.Minute)

	repo := model.RepositoryDescriptor{Name: "r", FrequencyHours: 1}
	created, _ := store.Create(repo)
	tracker.Start(created.ID, created.Name)

	e := &entry{repo: created, nextRun: time.Now()}
	s.fire(context.Background(), e)

	if runner.count() != 0 {
		t.Fatalf("expected RunCrawl to be skipped, called %d times", runner.count())
	}
}

func TestFireRunsAndRearms(t *testing.T) {
	store := metadatastore.NewInMemoryStore()
	tracker := progress.New()
	runner := &fakeRunner{}
	s := New(store, tracker, runner, time.Minute)

	repo := model.RepositoryDescriptor{Name: "r", FrequencyHours: 1}
	created, _ := store.Create(repo)

	e := &entry{repo: created, nextRun: time.Now()}
	s.fire(context.Background(), e)
	s.wg.Wait()

	if runner.count() != 1 {
		t.Fatalf("expected RunCrawl called once, got %d", runner.count())
	}
	if !e.nextRun.After(time.Now()) {
		t.Fatal("expected next run to be rearmed into the future")
	}

	updated, _ := store.Get(created.ID)
	if updated.LastCrawled == nil {
		t.Fatal("expected last_crawled to be persisted")
	}
}

func TestGetStatus(t *testing.T) {
	store := metadatastore.NewInMemoryStore()
	tracker := progress.New()
	s := New(store, tracker, &fakeRunner{}, time.Minute)

	repo := model.RepositoryDescriptor{Name: "r", Enabled: true, FrequencyHours: 1}
	created, _ := store.Create(repo)
	s.entries[created.ID] = &entry{repo: created, nextRun: time.Now()}

	status := s.GetStatus()
	if status.ScheduledRepositoriesCount != 1 {
		t.Fatalf("ScheduledRepositoriesCount = %d, want 1", status.ScheduledRepositoriesCount)
	}
	if status.AutoCrawlEnabledCount != 1 {
		t.Fatalf("AutoCrawlEnabledCount = %d, want 1", status.AutoCrawlEnabledCount)
	}
	if len(status.NextRuns) != 1 {
		t.Fatalf("NextRuns = %d, want 1", len(status.NextRuns))
	}
}
