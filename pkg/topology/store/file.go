package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// FileStore keeps one snapshot file per network in a directory. Reads accept
// <network>.yaml, <network>.yml and <network>.json; writes produce YAML.
type FileStore struct {
	dir string
}

var fileExtensions = []string{".yaml", ".yml", ".json"}

// NewFileStore creates a file store in dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: no directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Read loads the snapshot of network.
func (s *FileStore) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	if err := validNetwork(network); err != nil {
		return nil, err
	}
	for _, ext := range fileExtensions {
		path := filepath.Join(s.dir, network+ext)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		snap, err := topology.Load(path)
		if err != nil {
			return nil, err
		}
		if snap.Network == "" {
			snap.Network = network
		}
		return snap, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, network, s.dir)
}

// Write stores snap as <network>.yaml, replacing the file atomically.
func (s *FileStore) Write(ctx context.Context, snap *topology.Snapshot) error {
	if err := validNetwork(snap.Network); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := topology.Encode(&buf, snap, topology.FormatYAML); err != nil {
		return err
	}

	path := filepath.Join(s.dir, snap.Network+".yaml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Networks lists the networks with a snapshot file.
func (s *FileStore) Networks(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !slices.Contains(fileExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Close does nothing for the file store.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
