package store

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// MemoryStore keeps snapshots in process memory. Snapshots are stored
// encoded, so a caller mutating a read snapshot never affects the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Read returns a copy of the snapshot of network.
func (s *MemoryStore) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.data[network]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, network)
	}
	return decodeJSON(data)
}

// Write stores a copy of snap.
func (s *MemoryStore) Write(ctx context.Context, snap *topology.Snapshot) error {
	if err := validNetwork(snap.Network); err != nil {
		return err
	}
	data, err := encodeJSON(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.Network] = data
	return nil
}

// Networks lists the stored networks.
func (s *MemoryStore) Networks(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}

// Close does nothing.
func (s *MemoryStore) Close() error {
	return nil
}

func encodeJSON(snap *topology.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := topology.Encode(&buf, snap, topology.FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeJSON(data []byte) (*topology.Snapshot, error) {
	return topology.Decode(bytes.NewReader(data), topology.FormatJSON)
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
