// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package treewalk enumerates the files reachable from a Git tree, and
// resolves branch names to the tree id at their tip, without ever checking
// files out onto disk.
package treewalk

import (
	"errors"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	klaskerrors "github.com/klask-search/klask/internal/errors"
)

// Entry is a single file reached by a tree walk: its path relative to the
// tree root, and the blob hash holding its content.
type Entry struct {
	Path string
	Hash plumbing.Hash
}

// Walker walks the trees of a single cloned-or-fetched repository.
type Walker struct {
	repo *git.Repository
}

// NewWalker wraps repo for tree access.
func NewWalker(repo *git.Repository) *Walker {
	return &Walker{repo: repo}
}

// Branches returns the deduplicated union of local heads and origin remote
// branches, excluding origin/HEAD.
func (w *Walker) Branches() ([]string, error) {
	refs, err := w.repo.References()
	if err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "list references")
	}
	defer refs.Close()

	seen := make(map[string]struct{})
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		switch {
		case strings.HasPrefix(name, "refs/heads/"):
			seen[strings.TrimPrefix(name, "refs/heads/")] = struct{}{}
		case strings.HasPrefix(name, "refs/remotes/origin/"):
			branch := strings.TrimPrefix(name, "refs/remotes/origin/")
			if branch != "HEAD" {
				seen[branch] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, klaskerrors.WrapWithMessage(err, "iterate references")
	}

	branches := make([]string, 0, len(seen))
	for b := range seen {
		branches = append(branches, b)
	}
	return branches, nil
}

// TreeAt resolves branch to its tip commit's tree, trying the origin remote
// ref before the local head.
func (w *Walker) TreeAt(branch string) (*object.Tree, error) {
	candidates := []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName("origin", branch),
		plumbing.NewBranchReferenceName(branch),
	}

	var lastErr error
	for _, refName := range candidates {
		ref, err := w.repo.Reference(refName, true)
		if err != nil {
			lastErr = err
			continue
		}
		commit, err := w.repo.CommitObject(ref.Hash())
		if err != nil {
			return nil, klaskerrors.WrapWithMessage(err, "resolve commit for "+branch)
		}
		tree, err := commit.Tree()
		if err != nil {
			return nil, klaskerrors.WrapWithMessage(err, "resolve tree for "+branch)
		}
		return tree, nil
	}

	return nil, klaskerrors.Wrap(lastErr, klaskerrors.ErrBranchNotFound)
}

// Walk visits every blob entry reachable from tree, skipping submodules and
// symlinks, and returns them in depth-first order with joined paths.
func Walk(tree *object.Tree) ([]Entry, error) {
	var entries []Entry

	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	for {
		name, te, err := walker.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, klaskerrors.WrapWithMessage(err, "walk tree")
		}

		if te.Mode == filemodeSubmodule || te.Mode == filemodeSymlink {
			continue
		}
		if !te.Mode.IsFile() {
			continue
		}

		entries = append(entries, Entry{Path: name, Hash: te.Hash})
	}

	return entries, nil
}

// filemodeSubmodule is the Git tree entry mode for a gitlink (submodule).
const filemodeSubmodule = 0o160000

// filemodeSymlink is the Git tree entry mode for a symbolic link.
const filemodeSymlink = 0o120000
