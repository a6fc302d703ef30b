// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package fileproc

import (
	"os"

	"github.com/klask-search/klask/pkg/identity"
	"github.com/klask-search/klask/pkg/model"
)

// Upserter is the narrow write surface Process needs from the search
// index. *searchindex.Engine satisfies it structurally; fileproc never
// imports searchindex, keeping the dependency one-way.
type Upserter interface {
	Upsert(doc model.IndexDocument) error
}

// Processor turns a single enumerated file into an indexed document.
type Processor struct {
	index Upserter
}

// NewProcessor builds a Processor writing through index.
func NewProcessor(index Upserter) *Processor {
	return &Processor{index: index}
}

// Process reads content (if not already provided), decides whether the
// file is worth indexing, and if so computes its identity and upserts it.
// A nil, nil return means the file was legitimately skipped (unsupported
// extension, binary content, or empty) rather than failed.
func (p *Processor) Process(repo model.RepositoryDescriptor, entry FileInput) (*model.IndexDocument, error) {
	if !Supported(entry.RelativePath) {
		return nil, nil
	}

	content := entry.Content
	if !entry.ContentProvided {
		data, err := os.ReadFile(entry.FilesystemPath)
		if err != nil {
			return nil, err
		}
		content = string(data)
	}

	if content == "" || ContainsNUL(content) {
		return nil, nil
	}

	id := identity.FileID(repo.Kind, entry.RepositoryURL, entry.Branch, entry.RelativePath)
	doc := Build(entry.RelativePath, content, entry.RepositoryField, entry.Project, entry.Version)
	doc.FileID = id

	if err := p.index.Upsert(doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FileInput describes one file as discovered by a branch walk, already
// carrying the identity-hashing inputs and grouping fields that differ
// by source kind. Content/ContentProvided lets Git sources hand over
// blob bytes already read (via pkg/blob) so Process doesn't re-read from
// disk; FileSystem sources leave ContentProvided false and set
// FilesystemPath instead.
type FileInput struct {
	RelativePath    string
	Branch          string
	RepositoryURL   string
	RepositoryField string
	Project         string
	Version         string

	Content         string
	ContentProvided bool
	FilesystemPath  string
}
