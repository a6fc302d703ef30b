// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package crawler drives one repository's crawl end to end: it resolves
// the right source adapter for the descriptor's kind, enumerates branch
// contexts (with retry on transient provider failures), feeds each branch
// through branchproc, and keeps the progress tracker and resume state
// current along the way.
package crawler

import (
	"context"
	"log/slog"
	"time"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/branchproc"
	"github.com/klask-search/klask/pkg/metadatastore"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/progress"
	"github.com/klask-search/klask/pkg/provider"
	"github.com/klask-search/klask/pkg/ratelimit"
)

// enumerateAttempts bounds retries of a failed provider enumeration.
const enumerateAttempts = 3

// Decryptor is the narrow surface needed to turn a stored access token
// back into its plaintext just before a provider call. *secrets.Service
// satisfies it.
type Decryptor interface {
	Decrypt(encoded string) (string, error)
}

// Crawler implements scheduler.CrawlRunner over a set of registered
// source adapters.
type Crawler struct {
	adapters map[model.SourceKind]provider.SourceAdapter
	branches *branchproc.Processor
	tracker  *progress.Tracker
	store    metadatastore.Store
	secrets  Decryptor
	logger   *slog.Logger

	// sleep is swapped out by tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Crawler writing through index. Adapters are registered
// separately with Register; secrets may be nil when tokens are stored in
// plaintext (development setups).
func New(index branchproc.Index, tracker *progress.Tracker, store metadatastore.Store, secrets Decryptor, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		adapters: make(map[model.SourceKind]provider.SourceAdapter),
		branches: branchproc.New(index, tracker),
		tracker:  tracker,
		store:    store,
		secrets:  secrets,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Register installs the adapter responsible for kind.
func (c *Crawler) Register(kind model.SourceKind, adapter provider.SourceAdapter) {
	c.adapters[kind] = adapter
}

// RunCrawl crawls every branch of repo, returning ErrCancelledByUser on a
// cooperative cancellation and ErrIndexWriteFailed on a fatal index error.
// Terminal progress status is the caller's responsibility (the scheduler
// and Crawl both map the returned error onto one), matching the split
// between running a crawl and owning its lifecycle record.
func (c *Crawler) RunCrawl(ctx context.Context, repo model.RepositoryDescriptor, cancel <-chan struct{}) error {
	adapter, ok := c.adapters[repo.Kind]
	if !ok {
		return klaskerrors.WrapWithMessage(klaskerrors.ErrSourceUnavailable, "no adapter for source kind "+string(repo.Kind))
	}

	crawlsStarted.Inc()
	c.logger.Info("crawl started", "repo", repo.Name, "kind", repo.Kind, "url", repo.URL)

	if repo.Token != "" && c.secrets != nil {
		token, err := c.secrets.Decrypt(repo.Token)
		if err != nil {
			return klaskerrors.Wrap(err, klaskerrors.ErrSourceAuthFailed)
		}
		repo.Token = token
	}

	c.tracker.UpdateStatus(repo.ID, model.CrawlCloning)

	contexts, err := c.enumerateWithRetry(ctx, adapter, repo)
	if err != nil {
		crawlsFailed.Inc()
		return err
	}

	c.tracker.UpdateStatus(repo.ID, model.CrawlProcessing)

	started := time.Now()
	var lastProject string
	for _, bc := range contexts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if isCancelled(cancel) {
			return klaskerrors.ErrCancelledByUser
		}

		if bc.Project != "" && bc.Project != lastProject {
			lastProject = bc.Project
			c.persistResumeMarker(repo, bc.Project, started)
		}

		result, err := c.branches.Run(cancel, repo, bc)
		documentsIndexed.Add(float64(result.FilesIndexed))
		if err != nil {
			if klaskerrors.Is(err, klaskerrors.ErrIndexWriteFailed) {
				crawlsFailed.Inc()
				return err
			}
			// A branch that failed to resolve or walk is skipped, not
			// fatal to the repository.
			c.logger.Warn("branch skipped", "repo", repo.Name, "branch", bc.Branch, "err", err)
			continue
		}
		if result.Cancelled {
			return klaskerrors.ErrCancelledByUser
		}
		for _, fileErr := range result.Errors {
			c.logger.Debug("file error", "repo", repo.Name, "branch", bc.Branch, "err", fileErr)
		}

		c.tracker.UpdateStatus(repo.ID, model.CrawlProcessing)
	}

	c.clearResumeMarker(repo)
	crawlsCompleted.Inc()
	c.logger.Info("crawl completed", "repo", repo.Name, "branches", len(contexts))
	return nil
}

// Crawl runs repo's full crawl lifecycle: progress record creation,
// RunCrawl, and the terminal status transition. It is the entry point for
// one-shot crawls outside the scheduler (the CLI crawl command and
// watch-triggered re-crawls). The final progress record is returned even
// when the crawl failed.
func (c *Crawler) Crawl(ctx context.Context, repo model.RepositoryDescriptor) (model.CrawlProgress, error) {
	if c.tracker.IsCrawling(repo.ID) {
		p, _ := c.tracker.Get(repo.ID)
		return p, klaskerrors.WrapWithMessage(klaskerrors.ErrDuplicate, "crawl already running for "+repo.Name)
	}

	cancel := c.tracker.Start(repo.ID, repo.Name)
	err := c.RunCrawl(ctx, repo, cancel)

	switch {
	case klaskerrors.Is(err, klaskerrors.ErrCancelledByUser):
		c.tracker.Complete(repo.ID, model.CrawlCancelled)
	case err != nil:
		c.tracker.SetError(repo.ID, err.Error())
		c.tracker.Complete(repo.ID, model.CrawlFailed)
	default:
		c.tracker.Complete(repo.ID, model.CrawlCompleted)
	}

	p, _ := c.tracker.Get(repo.ID)
	return p, err
}

// enumerateWithRetry retries transient enumeration failures with
// exponential backoff. Auth failures are never retried.
func (c *Crawler) enumerateWithRetry(ctx context.Context, adapter provider.SourceAdapter, repo model.RepositoryDescriptor) ([]provider.BranchContext, error) {
	var lastErr error
	for attempt := 0; attempt < enumerateAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, ratelimit.CalculateBackoff(attempt)); err != nil {
				return nil, err
			}
		}

		contexts, err := adapter.Enumerate(ctx, repo)
		if err == nil {
			return contexts, nil
		}
		if klaskerrors.Is(err, klaskerrors.ErrSourceAuthFailed) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("enumerate failed", "repo", repo.Name, "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

// persistResumeMarker records the child project about to be processed so a
// restarted crawl can pick up where this one left off.
func (c *Crawler) persistResumeMarker(repo model.RepositoryDescriptor, project string, started time.Time) {
	stored, err := c.store.Get(repo.ID)
	if err != nil {
		return
	}
	stored.LastProcessedProject = project
	stored.CrawlStartedAt = &started
	_ = c.store.Update(stored)
}

// clearResumeMarker resets the resume state after a fully successful crawl
// so the next run starts from the first child project again.
func (c *Crawler) clearResumeMarker(repo model.RepositoryDescriptor) {
	stored, err := c.store.Get(repo.ID)
	if err != nil {
		return
	}
	if stored.LastProcessedProject == "" && stored.CrawlStartedAt == nil {
		return
	}
	stored.LastProcessedProject = ""
	stored.CrawlStartedAt = nil
	_ = c.store.Update(stored)
}

func isCancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
