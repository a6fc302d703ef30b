// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package metadatastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
)

// FileStore is a Store backed by a single JSON file, for single-process
// CLI deployments that need RepositoryDescriptor registrations to survive
// across invocations without standing up a database.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore persisting to path. The file is created
// on first write if it does not already exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[uuid.UUID]model.RepositoryDescriptor, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[uuid.UUID]model.RepositoryDescriptor), nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return make(map[uuid.UUID]model.RepositoryDescriptor), nil
	}
	var list []model.RepositoryDescriptor
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]model.RepositoryDescriptor, len(list))
	for _, d := range list {
		byID[d.ID] = d
	}
	return byID, nil
}

func (s *FileStore) save(byID map[uuid.UUID]model.RepositoryDescriptor) error {
	list := make([]model.RepositoryDescriptor, 0, len(byID))
	for _, d := range byID {
		list = append(list, d)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *FileStore) Get(id uuid.UUID) (model.RepositoryDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.load()
	if err != nil {
		return model.RepositoryDescriptor{}, err
	}
	d, ok := byID[id]
	if !ok {
		return model.RepositoryDescriptor{}, klaskerrors.ErrNotFound
	}
	return d, nil
}

func (s *FileStore) List() ([]model.RepositoryDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.RepositoryDescriptor, 0, len(byID))
	for _, d := range byID {
		out = append(out, d)
	}
	return out, nil
}

func (s *FileStore) Create(desc model.RepositoryDescriptor) (model.RepositoryDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.load()
	if err != nil {
		return model.RepositoryDescriptor{}, err
	}
	if desc.ID == uuid.Nil {
		desc.ID = uuid.New()
	}
	if _, exists := byID[desc.ID]; exists {
		return model.RepositoryDescriptor{}, klaskerrors.ErrDuplicate
	}
	byID[desc.ID] = desc
	if err := s.save(byID); err != nil {
		return model.RepositoryDescriptor{}, err
	}
	return desc, nil
}

func (s *FileStore) Update(desc model.RepositoryDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := byID[desc.ID]; !exists {
		return klaskerrors.ErrNotFound
	}
	byID[desc.ID] = desc
	return s.save(byID)
}

func (s *FileStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := byID[id]; !exists {
		return klaskerrors.ErrNotFound
	}
	delete(byID, id)
	return s.save(byID)
}
