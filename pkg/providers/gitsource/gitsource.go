// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package gitsource is the SourceAdapter for plain Git URLs: it clones to
// (or fetches) a local cache and yields every branch, or just the pinned
// one, as a BranchContext.
package gitsource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	transport "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/provider"
	"github.com/klask-search/klask/pkg/treewalk"
)

// Adapter clones or updates a local cache under cacheRoot for every Git
// RepositoryDescriptor it is asked to enumerate.
type Adapter struct {
	cacheRoot string
}

// New builds an Adapter caching clones under cacheRoot.
func New(cacheRoot string) *Adapter {
	return &Adapter{cacheRoot: cacheRoot}
}

// Enumerate clones repo.URL into a stable local cache path (or fetches an
// existing one), then yields either the single pinned branch or every
// branch the tree walker finds.
func (a *Adapter) Enumerate(ctx context.Context, repo model.RepositoryDescriptor) ([]provider.BranchContext, error) {
	dir := a.localPath(repo)

	gitRepo, err := a.cloneOrFetch(ctx, repo, dir)
	if err != nil {
		return nil, err
	}

	walker := treewalk.NewWalker(gitRepo)

	var branches []string
	if b, ok := repo.SingleBranch(); ok {
		branches = []string{b}
	} else {
		branches, err = walker.Branches()
		if err != nil {
			return nil, err
		}
	}

	contexts := make([]provider.BranchContext, 0, len(branches))
	for _, branch := range branches {
		tree, err := walker.TreeAt(branch)
		if err != nil {
			// A branch that vanished between listing and resolving is
			// skipped, not fatal to the repository.
			continue
		}
		contexts = append(contexts, provider.BranchContext{
			Branch:        branch,
			RepositoryURL: repo.URL,
			Tree:          tree,
			Repo:          gitRepo,
		})
	}
	return contexts, nil
}

// cloneOrFetch opens dir as an existing clone and fetches updates, or
// performs a fresh clone if dir does not hold a repository yet.
func (a *Adapter) cloneOrFetch(ctx context.Context, repo model.RepositoryDescriptor, dir string) (*git.Repository, error) {
	auth := authFor(repo)

	gitRepo, err := git.PlainOpen(dir)
	if err == nil {
		fetchErr := gitRepo.FetchContext(ctx, &git.FetchOptions{Auth: auth, Force: true})
		if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
			return nil, klaskerrors.Wrap(fetchErr, klaskerrors.ErrSourceUnavailable)
		}
		return gitRepo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
	}

	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "create cache directory")
	}

	gitRepo, err = git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:  repo.URL,
		Auth: auth,
	})
	if err != nil {
		return nil, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
	}
	return gitRepo, nil
}

// authFor builds HTTP basic auth from a decrypted access token, or nil for
// anonymous clones. GitHub/GitLab both accept the token as the password
// with an arbitrary non-empty username.
func authFor(repo model.RepositoryDescriptor) *transport.BasicAuth {
	if repo.Token == "" {
		return nil
	}
	return &transport.BasicAuth{Username: "klask", Password: repo.Token}
}

// localPath derives a stable cache directory from the repository's id so
// repeated crawls reuse the same clone and benefit from incremental fetch.
func (a *Adapter) localPath(repo model.RepositoryDescriptor) string {
	name := repo.ID.String()
	if repo.ID == uuid.Nil {
		sum := sha256.Sum256([]byte(repo.URL))
		name = hex.EncodeToString(sum[:8])
	}
	return filepath.Join(a.cacheRoot, name)
}
