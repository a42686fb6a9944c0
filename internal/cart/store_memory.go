package cart

import (
	"context"
	"sync"

	"RetroStore/pkg/kit"
)

type MemStore struct {
	mu       sync.Mutex
	entries  []Entry
	notifier *kit.Notifier
}

func NewMemStore(notifier *kit.Notifier) *MemStore {
	return &MemStore{notifier: notifier}
}

func (s *MemStore) Load(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemStore) Save(_ context.Context, entries []Entry) error {
	s.mu.Lock()
	s.entries = make([]Entry, len(entries))
	copy(s.entries, entries)
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Publish(EventCartChanged)
	}
	return nil
}
