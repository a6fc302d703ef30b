// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package gitlab implements provider.Provider and provider.SourceAdapter
// against the GitLab API, enumerating every project under a group
// namespace (recursing into subgroups) and handing each off to a
// gitsource-style clone for branch discovery.
package gitlab

import (
	"context"
	"sync"
	"time"

	gitlabapi "github.com/xanzy/go-gitlab"
	"golang.org/x/sync/errgroup"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
	"github.com/klask-search/klask/pkg/provider"
	"github.com/klask-search/klask/pkg/ratelimit"
)

// Provider implements provider.ProviderWithAuth for GitLab, and
// provider.SourceAdapter for group-namespaced RepositoryDescriptors.
type Provider struct {
	mu          sync.RWMutex
	client      *gitlabapi.Client
	token       string
	baseURL     string
	rateLimiter *ratelimit.Limiter
	clone       provider.SourceAdapter // delegated per-project branch enumeration
}

// New builds a Provider. baseURL is the GitLab API endpoint, empty for
// gitlab.com. clone enumerates each surviving child project's branches
// once its clone URL is known (typically a *gitsource.Adapter).
func New(token, baseURL string, clone provider.SourceAdapter) (*Provider, error) {
	p := &Provider{
		token:       token,
		baseURL:     baseURL,
		rateLimiter: ratelimit.NewLimiter(2000),
		clone:       clone,
	}
	if err := p.initClient(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) initClient() error {
	var client *gitlabapi.Client
	var err error
	if p.baseURL != "" {
		client, err = gitlabapi.NewClient(p.token, gitlabapi.WithBaseURL(p.baseURL))
	} else {
		client, err = gitlabapi.NewClient(p.token)
	}
	if err != nil {
		return klaskerrors.WrapWithMessage(err, "create gitlab client")
	}
	p.client = client
	return nil
}

// Name returns "gitlab".
func (p *Provider) Name() string { return "gitlab" }

// SetToken rotates the access token and rebuilds the underlying client.
func (p *Provider) SetToken(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	return p.initClient()
}

// ValidateToken confirms the current token authenticates successfully.
func (p *Provider) ValidateToken(ctx context.Context) (bool, error) {
	if p.token == "" {
		return false, nil
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return false, err
	}
	_, _, err := p.client.Users.CurrentUser(gitlabapi.WithContext(ctx))
	if err != nil {
		return false, nil
	}
	return true, nil
}

// ListGroupRepos lists every project under namespace, recursing into
// subgroups, paginated per opts.
func (p *Provider) ListGroupRepos(ctx context.Context, namespace string, opts provider.ListOptions) ([]provider.Repository, error) {
	page := opts.Page
	if page == 0 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage == 0 {
		perPage = 100
	}

	listOpts := &gitlabapi.ListGroupProjectsOptions{
		ListOptions:      gitlabapi.ListOptions{Page: page, PerPage: perPage},
		IncludeSubGroups: gitlabapi.Ptr(true),
	}

	var repos []provider.Repository
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		projects, resp, err := p.client.Groups.ListGroupProjects(namespace, listOpts, gitlabapi.WithContext(ctx))
		if err != nil {
			return nil, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
		}
		for _, proj := range projects {
			repos = append(repos, convertProject(proj))
		}
		if resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return repos, nil
}

// GetRepository fetches a single project by its namespace-qualified path.
func (p *Provider) GetRepository(ctx context.Context, path string) (provider.Repository, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return provider.Repository{}, err
	}
	proj, _, err := p.client.Projects.GetProject(path, nil, gitlabapi.WithContext(ctx))
	if err != nil {
		return provider.Repository{}, klaskerrors.Wrap(err, klaskerrors.ErrSourceUnavailable)
	}
	return convertProject(proj), nil
}

// GetRateLimit reports the locally tracked rate-limit estimate; GitLab has
// no dedicated rate-limit endpoint.
func (p *Provider) GetRateLimit(ctx context.Context) (provider.RateLimit, error) {
	remaining, limit, reset := p.rateLimiter.Status()
	return provider.RateLimit{Limit: limit, Remaining: remaining, Reset: reset}, nil
}

// Enumerate implements provider.SourceAdapter: list every surviving child
// project in repo.Namespace, filter by exclusion rules, resume from
// repo.LastProcessedProject if set, and delegate branch discovery to the
// configured clone adapter for each one. A descriptor without IsGroup is
// handed to the clone adapter as the single repository at repo.URL.
func (p *Provider) Enumerate(ctx context.Context, repo model.RepositoryDescriptor) ([]provider.BranchContext, error) {
	if !repo.IsGroup {
		return p.clone.Enumerate(ctx, repo)
	}

	projects, err := p.ListGroupRepos(ctx, repo.Namespace, provider.ListOptions{PerPage: 100})
	if err != nil {
		return nil, err
	}

	surviving := filterAndResume(projects, repo)

	// Child projects clone concurrently; results keep listing order so the
	// crawler's resume marker advances deterministically.
	perProject := make([][]provider.BranchContext, len(surviving))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cloneParallelism)
	for i, proj := range surviving {
		i, proj := i, proj
		g.Go(func() error {
			childRepo := model.RepositoryDescriptor{
				Kind:   model.SourceGit,
				Name:   proj.Name,
				URL:    proj.CloneURL,
				Branch: repo.Branch,
				Token:  repo.Token,
			}

			branches, err := p.clone.Enumerate(gctx, childRepo)
			if err != nil {
				// A clone/auth failure on one project does not abort the
				// group.
				return nil
			}
			for j := range branches {
				branches[j].Project = proj.Name
				branches[j].ParentProject = repo.Namespace
				branches[j].RepositoryURL = proj.CloneURL
			}
			perProject[i] = branches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var contexts []provider.BranchContext
	for _, branches := range perProject {
		contexts = append(contexts, branches...)
	}
	return contexts, nil
}

// cloneParallelism bounds concurrent child-project clones per group.
const cloneParallelism = 4

// filterAndResume drops excluded child projects and, if repo carries a
// resume marker, skips everything up to and including the previously
// processed project.
func filterAndResume(projects []provider.Repository, repo model.RepositoryDescriptor) []provider.Repository {
	resuming := repo.LastProcessedProject != ""
	var surviving []provider.Repository
	for _, proj := range projects {
		if resuming {
			if proj.Name == repo.LastProcessedProject {
				resuming = false
			}
			continue
		}
		if repo.Exclude.Excluded(proj.Name) {
			continue
		}
		surviving = append(surviving, proj)
	}
	return surviving
}

func convertProject(proj *gitlabapi.Project) provider.Repository {
	var createdAt, updatedAt time.Time
	if proj.CreatedAt != nil {
		createdAt = *proj.CreatedAt
	}
	if proj.LastActivityAt != nil {
		updatedAt = *proj.LastActivityAt
	}
	return provider.Repository{
		Name:          proj.Path,
		FullName:      proj.PathWithNamespace,
		CloneURL:      proj.HTTPURLToRepo,
		SSHURL:        proj.SSHURLToRepo,
		HTMLURL:       proj.WebURL,
		Description:   proj.Description,
		DefaultBranch: proj.DefaultBranch,
		Private:       proj.Visibility != gitlabapi.PublicVisibility,
		Archived:      proj.Archived,
		Fork:          proj.ForkedFromProject != nil,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}
