// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package identity computes the deterministic document identifier used by
// IndexEngine upserts: a SHA-256 digest of the file's logical coordinates,
// truncated and bit-fixed into a UUIDv4-shaped value so that re-crawling the
// same coordinates always upserts rather than duplicates.
package identity

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"

	"github.com/klask-search/klask/pkg/model"
)

// FileID derives the stable identifier for a file discovered at
// relativePath, on branch, belonging to a repository identified by url and
// kind. For model.SourceFileSystem the branch is not part of the input:
// a filesystem source has no branches.
func FileID(kind model.SourceKind, url, branch, relativePath string) uuid.UUID {
	var input string
	if kind == model.SourceFileSystem {
		input = fmt.Sprintf("%s:%s", url, relativePath)
	} else {
		input = fmt.Sprintf("%s:%s:%s", url, branch, relativePath)
	}
	return fromInput(input)
}

// fromInput hashes input with SHA-256, takes the leading 16 bytes of the
// digest, and fixes the version/variant nibbles so the result is a
// structurally valid (if not randomly generated) UUIDv4.
func fromInput(input string) uuid.UUID {
	digest := sha256.Sum256([]byte(input))

	var id uuid.UUID
	copy(id[:], digest[:16])

	id[6] = (id[6] & 0x0f) | 0x40 // version 4
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return id
}
