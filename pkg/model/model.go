// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package model holds the crawl-and-index data model: repository
// descriptors, the transient file entries the walkers produce, the stored
// index document shape, and the progress/schedule records derived from
// them.
package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies which SourceAdapter owns a RepositoryDescriptor.
type SourceKind string

const (
	SourceGit        SourceKind = "git"
	SourceGitLab     SourceKind = "gitlab"
	SourceGitHub     SourceKind = "github"
	SourceFileSystem SourceKind = "filesystem"
)

// RepositoryDescriptor is the crawl target, owned read-only by the core and
// updated only to persist schedule/crawl-state fields.
type RepositoryDescriptor struct {
	ID        uuid.UUID
	Name      string
	Kind      SourceKind
	URL       string // URL for VCS sources, absolute path for FileSystem
	Branch    string // optional; empty means "all branches"
	Enabled   bool
	Token     string // opaque, encrypted at rest; decrypted just before use
	Namespace string // GitLab group path or GitHub organization (GitHub user accounts are not listed)
	IsGroup   bool
	Exclude   ExclusionRules

	// Scheduling.
	CronExpr          string
	FrequencyHours    int
	MaxCrawlMinutes   int
	LastCrawled       *time.Time
	NextCrawlAt       *time.Time
	LastCrawlDuration time.Duration

	// Resumable crawl state.
	LastProcessedProject string
	CrawlStartedAt       *time.Time
}

// ExclusionRules filters child projects for group-style sources.
type ExclusionRules struct {
	Projects []string // exact child-project names to skip
	Globs    []string // glob patterns (filepath.Match syntax) to skip
}

// Excluded reports whether name is excluded by an explicit match or a glob.
func (e ExclusionRules) Excluded(name string) bool {
	for _, p := range e.Projects {
		if p == name {
			return true
		}
	}
	for _, g := range e.Globs {
		if ok, _ := filepath.Match(g, name); ok {
			return true
		}
	}
	return false
}

// SingleBranch reports the descriptor's pinned branch, if any.
func (r RepositoryDescriptor) SingleBranch() (string, bool) {
	if r.Branch == "" {
		return "", false
	}
	return r.Branch, true
}

// FileEntry is a transient, never-persisted walk result: a relative path
// paired with either a Git object id (GitRef) or an on-disk path
// (FilesystemPath), plus the branch it was discovered on.
type FileEntry struct {
	RelativePath   string
	GitRef         string // git object id (hex), empty for filesystem entries
	FilesystemPath string // absolute path, empty for git entries
	Size           int64
	Branch         string
}

// IndexDocument is the stored tuple.
type IndexDocument struct {
	FileID     uuid.UUID
	FileName   string
	FilePath   string
	Content    string
	Repository string // parent aggregate: group/org name, or repo name for plain Git
	Project    string // child project name; equals Repository for non-group sources
	Version    string // branch name ("HEAD" for FileSystem)
	Extension  string // lowercased suffix, or empty
}

// Extension returns the lowercased file extension of path, without the dot,
// or "" if there is none.
func Extension(path string) string {
	idx := strings.LastIndexByte(path, '.')
	slash := strings.LastIndexAny(path, "/\\")
	if idx <= slash {
		return ""
	}
	return strings.ToLower(path[idx+1:])
}

// BaseName returns the final path component.
func BaseName(path string) string {
	idx := strings.LastIndexAny(path, "/\\")
	return path[idx+1:]
}

// CrawlStatus is the ProgressTracker state machine.
type CrawlStatus string

const (
	CrawlQueued     CrawlStatus = "queued"
	CrawlCloning    CrawlStatus = "cloning"
	CrawlProcessing CrawlStatus = "processing"
	CrawlIndexing   CrawlStatus = "indexing"
	CrawlCompleted  CrawlStatus = "completed"
	CrawlFailed     CrawlStatus = "failed"
	CrawlCancelled  CrawlStatus = "cancelled"
)

// Terminal reports whether the status represents a finished crawl.
func (s CrawlStatus) Terminal() bool {
	switch s {
	case CrawlCompleted, CrawlFailed, CrawlCancelled:
		return true
	default:
		return false
	}
}

// CrawlProgress is one repository's in-flight or most-recently-finished
// crawl record, held by pkg/progress.
type CrawlProgress struct {
	RepositoryID   uuid.UUID
	RepositoryName string
	Status         CrawlStatus
	Percent        float64
	FilesProcessed int
	FilesIndexed   int
	FilesTotal     int // best-effort, 0 if unknown
	CurrentFile    string
	ErrorMessage   string
	StartedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// SearchQuery is the QueryEngine's input.
type SearchQuery struct {
	Text          string
	Project       string
	Version       string
	Extension     string
	Limit         int
	Offset        int
	IncludeFacets bool
}

// SearchHit is a single scored QueryEngine result.
type SearchHit struct {
	Document   IndexDocument
	Score      float64
	Snippet    string
	DocAddress string
}

// SearchResult is the QueryEngine's output. Facets is nil unless the query
// asked for them; when present it covers the full post-filter result set,
// not just the returned page.
type SearchResult struct {
	Hits   []SearchHit
	Total  int // post-filter count
	Facets *SearchFacets
}

// FacetValue is one value/count pair in a faceted field.
type FacetValue struct {
	Value string
	Count int
}

// SearchFacets groups the browsable filter values for a query.
type SearchFacets struct {
	Projects   []FacetValue
	Versions   []FacetValue
	Extensions []FacetValue
}
