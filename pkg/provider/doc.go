// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package provider defines the interfaces a crawl source implements.
//
// Provider is the narrow discovery surface a hosted-platform adapter wraps
// to enumerate group/org repositories. SourceAdapter is the uniform
// contract every crawl source satisfies — Git, GitLab, GitHub, and
// FileSystem alike — to turn a RepositoryDescriptor into the set of
// branches worth walking.
//
// # Implementations
//
// See pkg/providers/gitsource, pkg/providers/gitlab, pkg/providers/github,
// and pkg/providers/filesystem for concrete adapters.
package provider
