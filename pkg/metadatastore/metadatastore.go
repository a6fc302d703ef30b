// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package metadatastore defines the external collaborator contract the
// core depends on for RepositoryDescriptor persistence, plus an in-memory
// reference implementation used by tests and a JSON-file implementation
// (FileStore) used by the CLI. A relational-backed implementation is out of
// scope for this module.
package metadatastore

import (
	"sync"

	"github.com/google/uuid"

	klaskerrors "github.com/klask-search/klask/internal/errors"
	"github.com/klask-search/klask/pkg/model"
)

// Store is the contract the core depends on to load and persist
// RepositoryDescriptor records. The core only ever reads descriptors and
// writes back the schedule/crawl-state fields; it never deletes or
// creates one on its own.
type Store interface {
	Get(id uuid.UUID) (model.RepositoryDescriptor, error)
	List() ([]model.RepositoryDescriptor, error)
	Create(desc model.RepositoryDescriptor) (model.RepositoryDescriptor, error)
	Update(desc model.RepositoryDescriptor) error
	Delete(id uuid.UUID) error
}

// InMemoryStore is a Store backed by a guarded map, suitable for tests and
// single-process deployments without an external database.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]model.RepositoryDescriptor
}

// NewInMemoryStore returns an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[uuid.UUID]model.RepositoryDescriptor)}
}

func (s *InMemoryStore) Get(id uuid.UUID) (model.RepositoryDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.byID[id]
	if !ok {
		return model.RepositoryDescriptor{}, klaskerrors.ErrNotFound
	}
	return d, nil
}

func (s *InMemoryStore) List() ([]model.RepositoryDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.RepositoryDescriptor, 0, len(s.byID))
	for _, d := range s.byID {
		out = append(out, d)
	}
	return out, nil
}

func (s *InMemoryStore) Create(desc model.RepositoryDescriptor) (model.RepositoryDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if desc.ID == uuid.Nil {
		desc.ID = uuid.New()
	}
	if _, exists := s.byID[desc.ID]; exists {
		return model.RepositoryDescriptor{}, klaskerrors.ErrDuplicate
	}
	s.byID[desc.ID] = desc
	return desc, nil
}

func (s *InMemoryStore) Update(desc model.RepositoryDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[desc.ID]; !exists {
		return klaskerrors.ErrNotFound
	}
	s.byID[desc.ID] = desc
	return nil
}

func (s *InMemoryStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[id]; !exists {
		return klaskerrors.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
