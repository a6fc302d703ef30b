// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package branchproc drives one branch of one repository end to end: it
// walks the tree (or directory), reads each blob, hands it to fileproc,
// and reports progress along the way.
package branchproc

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/blob"
	"github.com/klask-search/klask/pkg/fileproc"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/progress"
	"github.com/klask-search/klask/pkg/provider"
	"github.com/klask-search/klask/pkg/treewalk"
)

// Committer is the narrow write surface Processor needs beyond fileproc's
// Upserter: the ability to flush a batch at branch completion.
type Committer interface {
	Commit() error
}

// Index bundles the upsert and commit surfaces a Processor writes through.
type Index interface {
	fileproc.Upserter
	Committer
}

// Processor drives a single BranchContext to completion, reporting
// progress and honoring cancellation between files.
type Processor struct {
	index    Index
	files    *fileproc.Processor
	progress *progress.Tracker
}

// New builds a Processor. progress may be nil, in which case progress
// reporting is skipped (useful for one-off reindex runs without a tracker).
func New(index Index, progress *progress.Tracker) *Processor {
	return &Processor{
		index:    index,
		files:    fileproc.NewProcessor(index),
		progress: progress,
	}
}

// Result summarizes one branch's run.
type Result struct {
	FilesProcessed int
	FilesIndexed   int
	Errors         []error
	Cancelled      bool
}

// Run walks bc and feeds every file through the FileProcessor, then
// requests a commit on normal completion. A cancellation mid-walk ends the
// branch early without committing; the caller decides whether to commit
// whatever was buffered.
func (p *Processor) Run(cancel <-chan struct{}, repo model.RepositoryDescriptor, bc provider.BranchContext) (Result, error) {
	entries, err := p.listEntries(repo, bc)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for _, e := range entries {
		if isCancelled(cancel) {
			result.Cancelled = true
			if repo.ID != uuid.Nil {
				p.setStatus(repo.ID, model.CrawlCancelled)
			}
			return result, nil
		}

		p.setCurrentFile(repo.ID, e.relativePath)

		input, skip, err := p.prepareInput(bc, repo, e)
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.FilesProcessed++
			p.setCounts(repo.ID, result, len(entries))
			continue
		}
		if skip {
			result.FilesProcessed++
			p.setCounts(repo.ID, result, len(entries))
			continue
		}

		doc, err := p.files.Process(repo, input)
		result.FilesProcessed++
		if err != nil {
			result.Errors = append(result.Errors, err)
		} else if doc != nil {
			result.FilesIndexed++
		}
		p.setCounts(repo.ID, result, len(entries))
	}

	if repo.ID != uuid.Nil {
		p.setStatus(repo.ID, model.CrawlIndexing)
	}
	if err := p.index.Commit(); err != nil {
		return result, klaskerrors.Wrap(err, klaskerrors.ErrIndexWriteFailed)
	}
	return result, nil
}

// walkEntry is a source-agnostic file reference gathered from either a Git
// tree or a filesystem directory.
type walkEntry struct {
	relativePath   string
	hash           plumbing.Hash
	filesystemPath string
}

func (p *Processor) listEntries(repo model.RepositoryDescriptor, bc provider.BranchContext) ([]walkEntry, error) {
	if bc.Tree != nil {
		rawEntries, err := treewalk.Walk(bc.Tree)
		if err != nil {
			return nil, err
		}
		entries := make([]walkEntry, 0, len(rawEntries))
		for _, e := range rawEntries {
			entries = append(entries, walkEntry{relativePath: e.Path, hash: e.Hash})
		}
		return entries, nil
	}

	return walkFilesystem(bc.FilesystemRoot)
}

func walkFilesystem(root string) ([]walkEntry, error) {
	var entries []walkEntry
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && fileproc.IgnoredDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, walkEntry{relativePath: filepath.ToSlash(rel), filesystemPath: path})
		return nil
	})
	if err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "walk filesystem root "+root)
	}
	return entries, nil
}

// prepareInput turns one walkEntry into a fileproc.FileInput, resolving
// Git blob content (subject to the size cap and text-decoding rule) up
// front so fileproc never needs its own object-store access. skip is true
// when the entry should be silently dropped without being treated as an
// error (unsupported kind, oversized blob, binary content).
func (p *Processor) prepareInput(bc provider.BranchContext, repo model.RepositoryDescriptor, e walkEntry) (fileproc.FileInput, bool, error) {
	base := fileproc.FileInput{
		RelativePath:    e.relativePath,
		Branch:          bc.Branch,
		RepositoryURL:   bc.RepositoryURL,
		RepositoryField: parentAggregate(bc, repo),
		Project:         childProject(bc, repo),
		Version:         bc.Branch,
	}

	if e.filesystemPath != "" {
		base.FilesystemPath = e.filesystemPath
		return base, false, nil
	}

	if !fileproc.Supported(e.relativePath) {
		return base, true, nil
	}

	reader := blob.NewReader(bc.Repo)
	ok, err := reader.WithinSizeLimit(e.hash)
	if err != nil {
		return base, false, err
	}
	if !ok {
		return base, true, nil
	}

	content, ok, err := reader.Read(e.hash)
	if err != nil {
		return base, false, err
	}
	if !ok {
		return base, true, nil
	}

	base.Content = content
	base.ContentProvided = true
	return base, false, nil
}

// parentAggregate resolves the mass-deletion grouping key: the namespace
// for group sources, else the repository's own name.
func parentAggregate(bc provider.BranchContext, repo model.RepositoryDescriptor) string {
	if bc.ParentProject != "" {
		return bc.ParentProject
	}
	return repo.Name
}

// childProject resolves the project facet value: the child project's own
// name for group sources, else the descriptor's name.
func childProject(bc provider.BranchContext, repo model.RepositoryDescriptor) string {
	if bc.Project != "" {
		return bc.Project
	}
	return repo.Name
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

func (p *Processor) setStatus(id uuid.UUID, status model.CrawlStatus) {
	if p.progress != nil {
		p.progress.UpdateStatus(id, status)
	}
}

func (p *Processor) setCurrentFile(id uuid.UUID, path string) {
	if p.progress != nil {
		p.progress.SetCurrentFile(id, path)
	}
}

func (p *Processor) setCounts(id uuid.UUID, result Result, total int) {
	if p.progress != nil {
		p.progress.UpdateCounts(id, result.FilesProcessed, result.FilesIndexed, total)
	}
}
