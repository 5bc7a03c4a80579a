// Package store reads and writes topology snapshots.
//
// A [Store] holds one snapshot per network name ("openroadm-topology",
// "otn-topology", ...). The graph builder never talks to a store itself;
// callers read the snapshot they need and hand it over.
//
// # Backends
//
//   - [FileStore]: one YAML or JSON file per network in a directory
//   - [MemoryStore]: process-local, for tests and one-shot CLI runs
//   - [RedisStore]: JSON values under "pcegraph:topology:<network>"
//   - [MongoStore]: one document per network in a collection
//   - [SQLiteStore]: one row per network in a local database file
//
// [Open] builds a store from a [Config], and [Instrument] wraps any store
// with the observability store hooks.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matzehuels/pcegraph/pkg/observability"
	"github.com/matzehuels/pcegraph/pkg/topology"
)

// ErrNotFound is returned when a network has no stored snapshot.
var ErrNotFound = errors.New("topology not found")

// Store reads and writes topology snapshots by network name.
type Store interface {
	// Read returns the snapshot of network, or ErrNotFound.
	Read(ctx context.Context, network string) (*topology.Snapshot, error)

	// Write stores snap under snap.Network, replacing any previous one.
	Write(ctx context.Context, snap *topology.Snapshot) error

	// Networks lists the stored network names, sorted.
	Networks(ctx context.Context) ([]string, error)

	// Close releases the backend connection.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	Dir string // file

	RedisAddr     string // redis
	RedisPassword string
	RedisDB       int

	MongoURI      string // mongo
	MongoDatabase string

	SQLitePath string // sqlite
}

// Open creates the store described by cfg, wrapped with [Instrument].
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendFile, "":
		s, err = NewFileStore(cfg.Dir)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendRedis:
		s, err = NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case BackendMongo:
		s, err = NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case BackendSQLite:
		s, err = NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}
	return Instrument(s, backend), nil
}

// instrumented reports reads and writes to the observability store hooks.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so every read and write fires the registered
// observability store hooks.
func Instrument(s Store, backend string) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{Store: s, backend: backend}
}

func (s *instrumented) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	start := time.Now()
	snap, err := s.Store.Read(ctx, network)
	observability.Store().OnStoreRead(ctx, s.backend, network, time.Since(start), err)
	return snap, err
}

func (s *instrumented) Write(ctx context.Context, snap *topology.Snapshot) error {
	if err := s.Store.Write(ctx, snap); err != nil {
		return err
	}
	observability.Store().OnStoreWrite(ctx, s.backend, snap.Network, len(snap.Nodes)+len(snap.Links))
	return nil
}

// ReadWithRetry reads network, retrying transient backend failures with
// [RetryWithBackoff].
func ReadWithRetry(ctx context.Context, s Store, network string) (*topology.Snapshot, error) {
	var snap *topology.Snapshot
	backend := ""
	if in, ok := s.(*instrumented); ok {
		backend = in.backend
	}
	attempt := 0
	err := RetryWithBackoff(ctx, func() error {
		attempt++
		if attempt > 1 {
			observability.Store().OnStoreRetry(ctx, backend, attempt)
		}
		var err error
		snap, err = s.Read(ctx, network)
		return err
	})
	return snap, err
}
