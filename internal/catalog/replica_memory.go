package catalog

import (
	"context"
	"sync"

	"RetroStore/pkg/kit"
)

type MemReplicaStore struct {
	mu       sync.RWMutex
	products []Product
	offline  bool
	notifier *kit.Notifier
}

func NewMemReplicaStore(seed []Product, notifier *kit.Notifier) *MemReplicaStore {
	s := &MemReplicaStore{notifier: notifier}
	s.products = append(s.products, seed...)
	return s
}

func (s *MemReplicaStore) LoadAll(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemReplicaStore) SaveAll(_ context.Context, products []Product) error {
	s.mu.Lock()
	s.products = make([]Product, len(products))
	copy(s.products, products)
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Publish(EventCatalogChanged)
	}
	return nil
}

func (s *MemReplicaStore) OfflineFlag(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline, nil
}

func (s *MemReplicaStore) SetOfflineFlag(_ context.Context, offline bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
	return nil
}

func (s *MemReplicaStore) Ping(_ context.Context) error { return nil }
