// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package filesystem

import (
	"context"
	"testing"

	"github.com/klask-search/klask/pkg/model"
)

func TestEnumerateReturnsSingleHeadBranch(t *testing.T) {
	a := New()
	contexts, err := a.Enumerate(context.Background(), model.RepositoryDescriptor{URL: "/tmp/repo"})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(contexts) != 1 {
		t.Fatalf("len = %d, want 1", len(contexts))
	}
	if contexts[0].Branch != HeadBranch {
		t.Errorf("Branch = %q, want %q", contexts[0].Branch, HeadBranch)
	}
	if contexts[0].FilesystemRoot != "/tmp/repo" {
		t.Errorf("FilesystemRoot = %q", contexts[0].FilesystemRoot)
	}
	if contexts[0].Tree != nil {
		t.Error("expected no Git tree for a filesystem source")
	}
}
