// Package persist saves query cache snapshots to an object store so a new
// process starts with the data an earlier one fetched.
package persist

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("snapshot object not found")

type Object struct {
	Body        []byte
	ContentType string
	UpdatedAt   time.Time
}

type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, key string, obj Object) error
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]Object{}}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Body = append([]byte(nil), obj.Body...)
	return obj, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, obj Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj.Body = append([]byte(nil), obj.Body...)
	s.objects[key] = obj
	return nil
}

func (s *MemoryStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return obj.UpdatedAt, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
