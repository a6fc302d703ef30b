// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package blob reads individual file contents out of a Git object store by
// hash, without requiring a checkout, and applies the size/encoding gates
// that decide whether a blob is worth indexing at all.
package blob

import (
	"io"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	klaskerrors "github.com/klask-search/klask/internal/errors"
)

// MaxFileSize is the upper bound on blob size eligible for indexing.
const MaxFileSize = 10 * 1024 * 1024

// Reader reads blob contents from a single repository's object store.
type Reader struct {
	repo ObjectGetter
}

// ObjectGetter is the subset of *git.Repository.BlobObject's dependency
// surface Reader needs, so tests can supply a fake.
type ObjectGetter interface {
	BlobObject(h plumbing.Hash) (*object.Blob, error)
}

// NewReader wraps repo for blob access.
func NewReader(repo ObjectGetter) *Reader {
	return &Reader{repo: repo}
}

// Size reports the blob's length in bytes without reading its content.
func (r *Reader) Size(hash plumbing.Hash) (int64, error) {
	b, err := r.repo.BlobObject(hash)
	if err != nil {
		return 0, klaskerrors.Wrap(err, klaskerrors.ErrBlobReadFailed)
	}
	return b.Size, nil
}

// WithinSizeLimit reports whether the blob at hash is small enough to index.
func (r *Reader) WithinSizeLimit(hash plumbing.Hash) (bool, error) {
	size, err := r.Size(hash)
	if err != nil {
		return false, err
	}
	return size <= MaxFileSize, nil
}

// Read returns the blob's content decoded as UTF-8 text. ok is false (with
// a nil error) when the blob is not valid UTF-8 or contains a NUL byte,
// mirroring the skip-don't-fail behavior for binary files.
func (r *Reader) Read(hash plumbing.Hash) (content string, ok bool, err error) {
	b, err := r.repo.BlobObject(hash)
	if err != nil {
		return "", false, klaskerrors.Wrap(err, klaskerrors.ErrBlobReadFailed)
	}

	rc, err := b.Reader()
	if err != nil {
		return "", false, klaskerrors.Wrap(err, klaskerrors.ErrBlobReadFailed)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", false, klaskerrors.Wrap(err, klaskerrors.ErrBlobReadFailed)
	}

	return decodeText(data)
}

// decodeText rejects binary content: invalid UTF-8 or an embedded NUL byte.
func decodeText(data []byte) (string, bool, error) {
	if !utf8.Valid(data) {
		return "", false, nil
	}
	for _, b := range data {
		if b == 0 {
			return "", false, nil
		}
	}
	return string(data), true, nil
}
