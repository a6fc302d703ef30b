package identity

import (
	"testing"

	"github.com/google/uuid"

	"github.com/klask-search/klask/pkg/model"
)

func TestFileIDDeterministic(t *testing.T) {
	a := FileID(model.SourceGit, "https://example.com/repo.git", "main", "src/main.go")
	b := FileID(model.SourceGit, "https://example.com/repo.git", "main", "src/main.go")

	if a != b {
		t.Fatalf("FileID not deterministic: %v != %v", a, b)
	}

	if a.Version() != 4 {
		t.Errorf("expected version 4, got %d", a.Version())
	}
	if a.Variant() != uuid.RFC4122 {
		t.Errorf("expected RFC4122 variant, got %v", a.Variant())
	}
}

func TestFileIDDiffersByBranch(t *testing.T) {
	a := FileID(model.SourceGit, "https://example.com/repo.git", "main", "src/main.go")
	b := FileID(model.SourceGit, "https://example.com/repo.git", "develop", "src/main.go")

	if a == b {
		t.Fatal("expected different branches to produce different ids")
	}
}

func TestFileIDFileSystemIgnoresBranch(t *testing.T) {
	a := FileID(model.SourceFileSystem, "/srv/code", "HEAD", "README.md")
	b := FileID(model.SourceFileSystem, "/srv/code", "", "README.md")

	if a != b {
		t.Fatal("filesystem source ids should not depend on branch")
	}
}

func TestFileIDDiffersByPath(t *testing.T) {
	a := FileID(model.SourceGit, "https://example.com/repo.git", "main", "a.go")
	b := FileID(model.SourceGit, "https://example.com/repo.git", "main", "b.go")

	if a == b {
		t.Fatal("expected different paths to produce different ids")
	}
}
