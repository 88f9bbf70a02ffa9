package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rgehrsitz/satax/internal/saga"
)

// MemoryStore implements saga.Store in memory. Snapshots are stored as
// encoded JSON so callers never share slices or pointers with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, snap saga.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot has no id")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode submission %s: %w", snap.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.ID] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (saga.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok {
		return saga.Snapshot{}, fmt.Errorf("%w: %s", saga.ErrNotFound, id)
	}
	return decodeSnapshot(data)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return fmt.Errorf("%w: %s", saga.ErrNotFound, id)
	}
	delete(s.snapshots, id)
	return nil
}

// List returns every snapshot, most recently updated first.
func (s *MemoryStore) List(_ context.Context) ([]saga.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]saga.Snapshot, 0, len(s.snapshots))
	for _, data := range s.snapshots {
		snap, err := decodeSnapshot(data)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	sortByUpdated(out)
	return out, nil
}

func decodeSnapshot(data []byte) (saga.Snapshot, error) {
	var snap saga.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return saga.Snapshot{}, fmt.Errorf("failed to decode submission: %w", err)
	}
	return snap, nil
}

func sortByUpdated(snaps []saga.Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if snaps[i].UpdatedAt.Equal(snaps[j].UpdatedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].UpdatedAt.After(snaps[j].UpdatedAt)
	})
}
