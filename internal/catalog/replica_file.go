package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"RetroStore/pkg/kit"
)

const (
	productsFile = "products.json"
	offlineFile  = "offline"
)

// FileReplicaStore persists the replica under a data directory, one file per
// well-known key. Writes go through temp-file + rename, so concurrent
// processes sharing the directory never observe a half-written collection.
type FileReplicaStore struct {
	mu       sync.Mutex
	dir      string
	notifier *kit.Notifier
}

func NewFileReplicaStore(dir string, notifier *kit.Notifier) (*FileReplicaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create replica dir: %w", err)
	}
	return &FileReplicaStore{dir: dir, notifier: notifier}, nil
}

func (s *FileReplicaStore) LoadAll(_ context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, productsFile))
	if os.IsNotExist(err) {
		seed := DefaultCatalog()
		if err := s.saveLocked(seed); err != nil {
			return nil, err
		}
		return seed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read replica: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode replica: %w", err)
	}
	return products, nil
}

func (s *FileReplicaStore) SaveAll(_ context.Context, products []Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(products)
}

func (s *FileReplicaStore) saveLocked(products []Product) error {
	raw, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}
	if err := kit.WriteFileAtomic(filepath.Join(s.dir, productsFile), raw, 0o644); err != nil {
		return fmt.Errorf("write replica: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(EventCatalogChanged)
	}
	return nil
}

func (s *FileReplicaStore) OfflineFlag(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, offlineFile))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read offline flag: %w", err)
	}
	return string(raw) == "true", nil
}

func (s *FileReplicaStore) SetOfflineFlag(_ context.Context, offline bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := []byte("false")
	if offline {
		raw = []byte("true")
	}
	if err := kit.WriteFileAtomic(filepath.Join(s.dir, offlineFile), raw, 0o644); err != nil {
		return fmt.Errorf("write offline flag: %w", err)
	}
	return nil
}

func (s *FileReplicaStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}
