// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/klask-search/klask/pkg/model"
)

// Repository represents a repository or project as discovered through a
// platform's project/group listing API (not the crawl target itself — see
// model.RepositoryDescriptor for that).
type Repository struct {
	Name          string
	FullName      string
	CloneURL      string
	SSHURL        string
	HTMLURL       string
	Description   string
	DefaultBranch string
	Archived      bool
	Fork          bool
	Private       bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Organization represents an organization or group from any Git platform.
type Organization struct {
	Name        string
	Description string
	URL         string
}

// RateLimit represents API rate limit information.
type RateLimit struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// ListOptions is the common pagination cursor for a provider's listing API.
type ListOptions struct {
	Page    int
	PerPage int
}

// Provider defines the discovery surface a GitLab/GitHub adapter wraps: it
// knows how to enumerate the repositories that belong to a namespace.
type Provider interface {
	// Name returns the provider name (gitlab, github).
	Name() string

	// ListGroupRepos lists every repository under a group/org namespace,
	// optionally recursing into subgroups.
	ListGroupRepos(ctx context.Context, namespace string, opts ListOptions) ([]Repository, error)

	// GetRepository fetches a single repository by its namespace-qualified
	// path.
	GetRepository(ctx context.Context, path string) (Repository, error)

	// GetRateLimit returns current rate limit status, or a zero value for
	// providers that don't expose one.
	GetRateLimit(ctx context.Context) (RateLimit, error)
}

// ProviderWithAuth extends Provider with token management.
type ProviderWithAuth interface {
	Provider

	SetToken(token string) error
	ValidateToken(ctx context.Context) (bool, error)
}

// BranchContext carries everything BranchProcessor needs to walk one
// branch of one repository: either a resolved Git tree (Git/GitLab/GitHub
// sources) or a filesystem root (FileSystem source), the branch name, and
// the parent aggregate name under which this branch's documents should be
// grouped for mass deletion.
type BranchContext struct {
	Branch         string
	Project        string // child project name; empty means "use the descriptor's own name"
	ParentProject  string // group/org name; empty for non-group sources
	RepositoryURL  string // identity-hashing input; child project's clone URL for group sources
	Tree           *object.Tree
	Repo           *git.Repository // object store backing Tree; nil for FileSystem sources
	FilesystemRoot string
}

// SourceAdapter discovers the branches a RepositoryDescriptor should be
// crawled at. Git/GitLab/GitHub/FileSystem each implement this uniformly.
type SourceAdapter interface {
	Enumerate(ctx context.Context, repo model.RepositoryDescriptor) ([]BranchContext, error)
}
