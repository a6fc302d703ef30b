// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package progress implements ProgressTracker: an in-memory map of
// repository id to crawl progress, guarded by a single RWMutex, with
// status transitions and TTL-based cleanup of finished entries.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
)

// Tracker holds one progress record per repository currently or most
// recently crawling.
type Tracker struct {
	mu     sync.RWMutex
	byRepo map[uuid.UUID]*model.CrawlProgress
	cancel map[uuid.UUID]chan struct{}
	now    func() time.Time
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		byRepo: make(map[uuid.UUID]*model.CrawlProgress),
		cancel: make(map[uuid.UUID]chan struct{}),
		now:    time.Now,
	}
}

// Start creates a new progress record for repoID, replacing any existing
// one. Returns a cancellation channel closed by Cancel.
func (t *Tracker) Start(repoID uuid.UUID, repoName string) <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.byRepo[repoID] = &model.CrawlProgress{
		RepositoryID:   repoID,
		RepositoryName: repoName,
		Status:         model.CrawlQueued,
		StartedAt:      now,
		UpdatedAt:      now,
	}
	ch := make(chan struct{})
	t.cancel[repoID] = ch
	return ch
}

// IsCrawling reports whether repoID has a non-terminal progress record,
// the overlap-prevention check the Scheduler consults before firing.
func (t *Tracker) IsCrawling(repoID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.byRepo[repoID]
	return ok && !p.Status.Terminal()
}

// UpdateStatus transitions repoID's status.
func (t *Tracker) UpdateStatus(repoID uuid.UUID, status model.CrawlStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byRepo[repoID]
	if !ok {
		return
	}
	p.Status = status
	p.UpdatedAt = t.now()
	if status.Terminal() {
		completed := t.now()
		p.CompletedAt = &completed
		p.Percent = 100
	}
}

// UpdateCounts records files processed/indexed/total so far and refreshes
// the derived completion percentage.
func (t *Tracker) UpdateCounts(repoID uuid.UUID, processed, indexed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byRepo[repoID]
	if !ok {
		return
	}
	p.FilesProcessed = processed
	p.FilesIndexed = indexed
	p.FilesTotal = total
	if total > 0 {
		p.Percent = float64(processed) / float64(total) * 100
	}
	p.UpdatedAt = t.now()
}

// SetCurrentFile records the file currently being processed.
func (t *Tracker) SetCurrentFile(repoID uuid.UUID, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byRepo[repoID]
	if !ok {
		return
	}
	p.CurrentFile = path
	p.UpdatedAt = t.now()
}

// SetError records a non-fatal or fatal error message without changing
// status; callers decide separately whether to transition to Failed.
func (t *Tracker) SetError(repoID uuid.UUID, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byRepo[repoID]
	if !ok {
		return
	}
	p.ErrorMessage = message
	p.UpdatedAt = t.now()
}

// Complete transitions repoID to a terminal status and closes its
// cancellation channel.
func (t *Tracker) Complete(repoID uuid.UUID, status model.CrawlStatus) {
	t.UpdateStatus(repoID, status)

	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.cancel[repoID]; ok {
		select {
		case <-ch:
		default:
			close(ch)
		}
		delete(t.cancel, repoID)
	}
}

// Cancel requests cancellation of repoID's in-flight crawl by closing its
// channel; BranchProcessor observes this between files.
func (t *Tracker) Cancel(repoID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.cancel[repoID]
	if !ok {
		return klaskerrors.ErrNotFound
	}
	select {
	case <-ch:
	default:
		close(ch)
	}
	return nil
}

// Get returns a copy of repoID's progress record.
func (t *Tracker) Get(repoID uuid.UUID) (model.CrawlProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.byRepo[repoID]
	if !ok {
		return model.CrawlProgress{}, false
	}
	return *p, true
}

// Active returns every progress record whose status is not terminal.
func (t *Tracker) Active() []model.CrawlProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []model.CrawlProgress
	for _, p := range t.byRepo {
		if !p.Status.Terminal() {
			out = append(out, *p)
		}
	}
	return out
}

// Remove drops repoID's progress record outright.
func (t *Tracker) Remove(repoID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byRepo, repoID)
	delete(t.cancel, repoID)
}

// CleanupOlderThan removes terminal records last updated more than age ago,
// keeping every active (non-terminal) record regardless of age.
func (t *Tracker) CleanupOlderThan(age time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-age)
	removed := 0
	for id, p := range t.byRepo {
		if p.Status.Terminal() && p.UpdatedAt.Before(cutoff) {
			delete(t.byRepo, id)
			delete(t.cancel, id)
			removed++
		}
	}
	return removed
}
