// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package github implements provider.Provider and provider.SourceAdapter
// against the GitHub API, enumerating every repository under an
// organization and delegating branch discovery to a clone adapter.
package github

import (
	"context"
	"sync"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/provider"
	"github.com/klask-search/klask/pkg/ratelimit"
)

// Provider implements provider.ProviderWithAuth and provider.SourceAdapter
// for GitHub organizations.
type Provider struct {
	mu          sync.RWMutex
	client      *github.Client
	token       string
	rateLimiter *ratelimit.Limiter
	clone       provider.SourceAdapter
}

// New builds a Provider. clone enumerates each surviving child
// repository's branches once its clone URL is known.
func New(token string, clone provider.SourceAdapter) *Provider {
	p := &Provider{
		token:       token,
		rateLimiter: ratelimit.NewLimiter(5000),
		clone:       clone,
	}
	p.initClient(token)
	return p
}

func (p *Provider) initClient(token string) {
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc := oauth2.NewClient(context.Background(), ts)
		p.client = github.NewClient(tc)
	} else {
		p.client = github.NewClient(nil)
	}
}

// Name returns "github".
func (p *Provider) Name() string { return "github" }

// SetToken rotates the access token and rebuilds the underlying client.
func (p *Provider) SetToken(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	p.initClient(token)
	return nil
}

// ValidateToken confirms the current token authenticates successfully.
func (p *Provider) ValidateToken(ctx context.Context) (bool, error) {
	if p.token == "" {
		return false, nil
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}
	_, _, err := p.client.Users.Get(ctx, "")
	if err != nil {
		return false, nil
	}
	return true, nil
}

// ListGroupRepos lists every repository under an organization.
func (p *Provider) ListGroupRepos(ctx context.Context, namespace string, opts provider.ListOptions) ([]provider.Repository, error) {
	page := opts.Page
	if page == 0 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage == 0 {
		perPage = 100
	}

	listOpts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}

	var repos []provider.Repository
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		ghRepos, resp, err := p.client.Repositories.ListByOrg(ctx, namespace, listOpts)
		if err != nil {
			return nil, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
		}
		p.rateLimiter.UpdateFromHeaders(resp.Response)
		for _, r := range ghRepos {
			repos = append(repos, convertRepo(r))
		}
		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return repos, nil
}

// GetRepository fetches a single "owner/name" repository.
func (p *Provider) GetRepository(ctx context.Context, path string) (provider.Repository, error) {
	owner, name, ok := splitOwnerRepo(path)
	if !ok {
		return provider.Repository{}, klaskerrors.WrapWithMessage(klaskerrors.ErrSourceUnavailable, "malformed repository path "+path)
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return provider.Repository{}, err
	}
	ghRepo, _, err := p.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return provider.Repository{}, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
	}
	return convertRepo(ghRepo), nil
}

// GetRateLimit returns GitHub's reported core rate-limit status.
func (p *Provider) GetRateLimit(ctx context.Context) (provider.RateLimit, error) {
	limits, _, err := p.client.RateLimit.Get(ctx)
	if err != nil {
		return provider.RateLimit{}, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
	}
	core := limits.Core
	return provider.RateLimit{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

// Enumerate implements provider.SourceAdapter for a GitHub-org-backed
// RepositoryDescriptor, mirroring gitlab.Provider's filter/resume/delegate
// shape. A descriptor without IsGroup is handed to the clone adapter as the
// single repository at repo.URL.
func (p *Provider) Enumerate(ctx context.Context, repo model.RepositoryDescriptor) ([]provider.BranchContext, error) {
	if !repo.IsGroup {
		return p.clone.Enumerate(ctx, repo)
	}

	repos, err := p.ListGroupRepos(ctx, repo.Namespace, provider.ListOptions{PerPage: 100})
	if err != nil {
		return nil, err
	}

	surviving := filterAndResume(repos, repo)

	// Same ordered concurrent-clone shape as the GitLab adapter.
	perRepo := make([][]provider.BranchContext, len(surviving))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cloneParallelism)
	for i, r := range surviving {
		i, r := i, r
		g.Go(func() error {
			childRepo := model.RepositoryDescriptor{
				Kind:   model.SourceGit,
				Name:   r.Name,
				URL:    r.CloneURL,
				Branch: repo.Branch,
				Token:  repo.Token,
			}
			branches, err := p.clone.Enumerate(gctx, childRepo)
			if err != nil {
				return nil
			}
			for j := range branches {
				branches[j].Project = r.Name
				branches[j].ParentProject = repo.Namespace
				branches[j].RepositoryURL = r.CloneURL
			}
			perRepo[i] = branches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var contexts []provider.BranchContext
	for _, branches := range perRepo {
		contexts = append(contexts, branches...)
	}
	return contexts, nil
}

// cloneParallelism bounds concurrent child-repository clones per org.
const cloneParallelism = 4

// filterAndResume drops excluded child repositories and, if repo carries a
// resume marker, skips everything up to and including the previously
// processed repository. Shared shape with the GitLab adapter.
func filterAndResume(repos []provider.Repository, repo model.RepositoryDescriptor) []provider.Repository {
	resuming := repo.LastProcessedProject != ""
	var surviving []provider.Repository
	for _, r := range repos {
		if resuming {
			if r.Name == repo.LastProcessedProject {
				resuming = false
			}
			continue
		}
		if repo.Exclude.Excluded(r.Name) {
			continue
		}
		surviving = append(surviving, r)
	}
	return surviving
}

func splitOwnerRepo(path string) (owner, name string, ok bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}

func convertRepo(r *github.Repository) provider.Repository {
	return provider.Repository{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		CloneURL:      r.GetCloneURL(),
		SSHURL:        r.GetSSHURL(),
		HTMLURL:       r.GetHTMLURL(),
		Description:   r.GetDescription(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		Archived:      r.GetArchived(),
		Fork:          r.GetFork(),
		CreatedAt:     r.GetCreatedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
	}
}
