// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package filesystem is the SourceAdapter for local directory trees: a
// single synthetic "HEAD" branch rooted at the descriptor's URL path.
package filesystem

import (
	"context"

	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/provider"
)

// HeadBranch is the synthetic branch name used for every FileSystem source.
const HeadBranch = "HEAD"

// Adapter yields one BranchContext per RepositoryDescriptor, rooted at its
// URL field treated as an absolute filesystem path.
type Adapter struct{}

// New builds a filesystem Adapter.
func New() *Adapter {
	return &Adapter{}
}

// Enumerate always returns exactly one BranchContext: the synthetic HEAD
// branch rooted at repo.URL. branchproc walks the directory itself; no
// tree or repo handle is attached.
func (a *Adapter) Enumerate(ctx context.Context, repo model.RepositoryDescriptor) ([]provider.BranchContext, error) {
	return []provider.BranchContext{
		{
			Branch:         HeadBranch,
			RepositoryURL:  repo.URL,
			FilesystemRoot: repo.URL,
		},
	}, nil
}
