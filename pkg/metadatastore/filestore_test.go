// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package metadatastore

import (
	"path/filepath"
	"testing"

	"github.com/klask-search/klask/pkg/model"
)

func TestFileStoreCreateGetList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.json")
	s := NewFileStore(path)

	created, err := s.Create(model.RepositoryDescriptor{Name: "r1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "r1" {
		t.Errorf("Name = %q, want r1", got.Name)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len(list) = %d, want 1", len(list))
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.json")
	s1 := NewFileStore(path)
	created, err := s1.Create(model.RepositoryDescriptor{Name: "persisted"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	s2 := NewFileStore(path)
	got, err := s2.Get(created.ID)
	if err != nil {
		t.Fatalf("Get from second instance: %v", err)
	}
	if got.Name != "persisted" {
		t.Errorf("Name = %q, want persisted", got.Name)
	}
}

func TestFileStoreUpdateAndDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.json")
	s := NewFileStore(path)
	created, _ := s.Create(model.RepositoryDescriptor{Name: "r1", Enabled: false})

	created.Enabled = true
	if err := s.Update(created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get(created.ID)
	if !got.Enabled {
		t.Error("expected Enabled to be true after update")
	}

	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(created.ID); err == nil {
		t.Error("expected error getting a deleted descriptor")
	}
}
