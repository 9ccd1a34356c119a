// Package memory provides in-process implementations of repository
// interfaces for tests and single-instance deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
)

// FieldStateStore implements repository.FieldStateStore in memory.
type FieldStateStore struct {
	mu     sync.Mutex
	seq    map[repository.FieldRef]int64
	states map[string]map[string]repository.FieldCheck
}

// NewFieldStateStore creates an empty in-memory field state store.
func NewFieldStateStore() *FieldStateStore {
	return &FieldStateStore{
		seq:    make(map[repository.FieldRef]int64),
		states: make(map[string]map[string]repository.FieldCheck),
	}
}

// Next allocates the next sequence number for the field.
func (s *FieldStateStore) Next(_ context.Context, ref repository.FieldRef) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[ref]++
	return s.seq[ref], nil
}

// Commit stores check if it is still the latest for the field.
func (s *FieldStateStore) Commit(_ context.Context, ref repository.FieldRef, check repository.FieldCheck) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq[ref] != check.Seq {
		return false, nil
	}
	doc, ok := s.states[ref.DocumentID]
	if !ok {
		doc = make(map[string]repository.FieldCheck)
		s.states[ref.DocumentID] = doc
	}
	doc[ref.FieldPath] = check
	return true, nil
}

// List returns the committed checks of a document ordered by field path.
func (s *FieldStateStore) List(_ context.Context, documentID string) ([]repository.FieldCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checks := make([]repository.FieldCheck, 0, len(s.states[documentID]))
	for _, c := range s.states[documentID] {
		checks = append(checks, c)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].FieldPath < checks[j].FieldPath })
	return checks, nil
}
