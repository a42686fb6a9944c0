package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"RetroStore/pkg/kit"
)

const EventCartChanged kit.Event = "cart_changed"

const cartFile = "cart.json"

type FileStore struct {
	mu       sync.Mutex
	path     string
	notifier *kit.Notifier
}

func NewFileStore(dir string, notifier *kit.Notifier) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, cartFile), notifier: notifier}, nil
}

func (s *FileStore) Load(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return entries, nil
}

func (s *FileStore) Save(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := kit.WriteFileAtomic(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write cart: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Publish(EventCartChanged)
	}
	return nil
}
