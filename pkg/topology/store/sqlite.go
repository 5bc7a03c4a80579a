package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

// SQLiteStore keeps snapshots as JSON blobs in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates its
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: no path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS topologies (
		network TEXT PRIMARY KEY,
		snapshot BLOB NOT NULL,
		nodes INTEGER NOT NULL,
		links INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);`)
	return err
}

// Read returns the snapshot of network.
func (s *SQLiteStore) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	if err := validNetwork(network); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM topologies WHERE network = ?`, network).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, network)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite read %s: %w", network, err)
	}
	return decodeJSON(data)
}

// Write inserts or replaces the row of snap.Network.
func (s *SQLiteStore) Write(ctx context.Context, snap *topology.Snapshot) error {
	if err := validNetwork(snap.Network); err != nil {
		return err
	}
	data, err := encodeJSON(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO topologies (network, snapshot, nodes, links, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(network) DO UPDATE SET
		snapshot = excluded.snapshot,
		nodes = excluded.nodes,
		links = excluded.links,
		updated_at = excluded.updated_at`,
		snap.Network, data, len(snap.Nodes), len(snap.Links), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite write %s: %w", snap.Network, err)
	}
	return nil
}

// Networks lists the stored networks.
func (s *SQLiteStore) Networks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT network FROM topologies ORDER BY network`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
