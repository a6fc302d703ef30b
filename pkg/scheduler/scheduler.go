// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package scheduler fires crawls on a cron or fixed-frequency schedule,
// coordinating with the progress tracker to prevent the same repository
// from being crawled twice at once.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/metadatastore"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/progress"
)

// parser requires the six-field form (seconds mandatory).
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CrawlRunner launches one repository's crawl. Implementations own the
// SourceAdapter/BranchProcessor wiring; the scheduler only decides when to
// call it and tracks cancellation/overlap.
type CrawlRunner interface {
	RunCrawl(ctx context.Context, repo model.RepositoryDescriptor, cancel <-chan struct{}) error
}

// entry is one repository's live schedule state.
type entry struct {
	repo    model.RepositoryDescriptor
	nextRun time.Time
}

// Scheduler owns the repo_id -> NextFireTime map described in the
// scheduling component design and drives the cooperative fire loop.
type Scheduler struct {
	mu      sync.Mutex
	store   metadatastore.Store
	tracker *progress.Tracker
	runner  CrawlRunner
	entries map[uuid.UUID]*entry
	now     func() time.Time
	tick    time.Duration
	running bool
	wg      sync.WaitGroup
}

// New builds a Scheduler. tick bounds how long the loop ever sleeps
// between checks, even if no entry's next-fire time is sooner.
func New(store metadatastore.Store, tracker *progress.Tracker, runner CrawlRunner, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		store:   store,
		tracker: tracker,
		runner:  runner,
		entries: make(map[uuid.UUID]*entry),
		now:     time.Now,
		tick:    tick,
	}
}

// Load reads every enabled RepositoryDescriptor with a cron expression or
// frequency and computes its initial next-fire time.
func (s *Scheduler) Load(ctx context.Context) error {
	repos, err := s.store.List()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, repo := range repos {
		if !repo.Enabled {
			continue
		}
		next, ok := s.computeNext(repo, s.now())
		if !ok {
			continue
		}
		s.entries[repo.ID] = &entry{repo: repo, nextRun: next}
	}
	return nil
}

// computeNext resolves a descriptor's next fire time from its cron
// expression, or failing that its frequency in hours, relative to from.
func (s *Scheduler) computeNext(repo model.RepositoryDescriptor, from time.Time) (time.Time, bool) {
	if repo.CronExpr != "" {
		sched, err := parser.Parse(repo.CronExpr)
		if err != nil {
			return time.Time{}, false
		}
		return sched.Next(from), true
	}
	if repo.FrequencyHours > 0 {
		base := from
		if repo.LastCrawled != nil {
			base = *repo.LastCrawled
		}
		next := base.Add(time.Duration(repo.FrequencyHours) * time.Hour)
		if next.Before(from) {
			next = from
		}
		return next, true
	}
	return time.Time{}, false
}

// Run blocks until ctx is cancelled, firing due crawls as their next-fire
// time arrives.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.wg.Wait()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for {
		wait := s.nextWakeup()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			s.fireDue(ctx)
		}
	}
}

// nextWakeup returns how long to sleep before the next check: the time
// until the earliest scheduled entry, capped by the periodic tick.
func (s *Scheduler) nextWakeup() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	earliest := s.now().Add(s.tick)
	for _, e := range s.entries {
		if e.nextRun.Before(earliest) {
			earliest = e.nextRun
		}
	}
	wait := earliest.Sub(s.now())
	if wait < 0 {
		wait = 0
	}
	if wait > s.tick {
		wait = s.tick
	}
	return wait
}

// fireDue fires every entry whose next-run time has passed.
func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	due := make([]*entry, 0)
	for _, e := range s.entries {
		if !e.nextRun.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.fire(ctx, e)
	}
}

// fire starts one entry's crawl, honoring overlap prevention. The crawl
// itself runs as its own task so one slow repository never delays the
// others; once it finishes, last_crawled/duration are persisted and the
// entry is re-armed.
func (s *Scheduler) fire(ctx context.Context, e *entry) {
	if s.tracker.IsCrawling(e.repo.ID) {
		s.rearm(e)
		return
	}

	cancel := s.tracker.Start(e.repo.ID, e.repo.Name)
	start := s.now()

	runCtx := ctx
	stop := context.CancelFunc(func() {})
	if e.repo.MaxCrawlMinutes > 0 {
		runCtx, stop = context.WithTimeout(ctx, time.Duration(e.repo.MaxCrawlMinutes)*time.Minute)
	}

	// The crawl only polls its cancellation channel between files, so a
	// deadline on runCtx has to be translated into a cancel request for it
	// to take effect promptly.
	if e.repo.MaxCrawlMinutes > 0 {
		go func() {
			<-runCtx.Done()
			if klaskerrors.Is(runCtx.Err(), context.DeadlineExceeded) {
				_ = s.tracker.Cancel(e.repo.ID)
			}
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stop()

		err := s.runner.RunCrawl(runCtx, e.repo, cancel)
		duration := s.now().Sub(start)

		switch {
		case err != nil && klaskerrors.Is(runCtx.Err(), context.DeadlineExceeded):
			s.tracker.SetError(e.repo.ID, klaskerrors.ErrExceededMaxDuration.Error())
			s.tracker.Complete(e.repo.ID, model.CrawlFailed)
		case klaskerrors.Is(err, klaskerrors.ErrCancelledByUser):
			s.tracker.Complete(e.repo.ID, model.CrawlCancelled)
		case err != nil:
			s.tracker.SetError(e.repo.ID, err.Error())
			s.tracker.Complete(e.repo.ID, model.CrawlFailed)
		default:
			s.tracker.Complete(e.repo.ID, model.CrawlCompleted)
		}

		s.mu.Lock()
		e.repo.LastCrawled = &start
		e.repo.LastCrawlDuration = duration
		s.mu.Unlock()

		s.rearm(e)

		s.mu.Lock()
		repoCopy := e.repo
		s.mu.Unlock()
		_ = s.store.Update(repoCopy)
	}()
}

// rearm recomputes an entry's next-fire time from now and records it on
// the descriptor for persistence.
func (s *Scheduler) rearm(e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.computeNext(e.repo, s.now())
	if !ok {
		delete(s.entries, e.repo.ID)
		return
	}
	e.nextRun = next
	e.repo.NextCrawlAt = &next
}

// NextRun is one upcoming scheduled fire, for Status reporting.
type NextRun struct {
	RepositoryID       uuid.UUID
	RepositoryName     string
	NextRunAt          time.Time
	ScheduleExpression string
}

// Status summarizes the scheduler's current state.
type Status struct {
	IsRunning                  bool
	ScheduledRepositoriesCount int
	AutoCrawlEnabledCount      int
	NextRuns                   []NextRun
}

// GetStatus reports whether the loop is running, how many repositories
// are scheduled, and their upcoming fire times.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{IsRunning: s.running, ScheduledRepositoriesCount: len(s.entries)}
	for _, e := range s.entries {
		if e.repo.Enabled {
			status.AutoCrawlEnabledCount++
		}
		status.NextRuns = append(status.NextRuns, NextRun{
			RepositoryID:       e.repo.ID,
			RepositoryName:     e.repo.Name,
			NextRunAt:          e.nextRun,
			ScheduleExpression: e.repo.CronExpr,
		})
	}
	return status
}
