package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/pcegraph/pkg/topology"
)

const (
	mongoDefaultDatabase = "pcegraph"
	mongoCollection      = "topologies"
)

// MongoStore keeps one document per network, keyed by network name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDocument struct {
	Network   string            `bson:"_id"`
	Snapshot  topology.Snapshot `bson:"snapshot"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// NewMongoStore connects to uri and uses database (default "pcegraph").
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo store: no uri")
	}
	if database == "" {
		database = mongoDefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(mongoCollection)}, nil
}

func transient(err error) bool {
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err)
}

// Read returns the snapshot of network.
func (s *MongoStore) Read(ctx context.Context, network string) (*topology.Snapshot, error) {
	if err := validNetwork(network); err != nil {
		return nil, err
	}
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": network}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, network)
	case err != nil && transient(err):
		return nil, Retryable(fmt.Errorf("mongo find %s: %w", network, err))
	case err != nil:
		return nil, fmt.Errorf("mongo find %s: %w", network, err)
	}
	return &doc.Snapshot, nil
}

// Write upserts the document of snap.Network.
func (s *MongoStore) Write(ctx context.Context, snap *topology.Snapshot) error {
	if err := validNetwork(snap.Network); err != nil {
		return err
	}
	doc := mongoDocument{Network: snap.Network, Snapshot: *snap, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": snap.Network}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", snap.Network, err)
	}
	return nil
}

// Networks lists the stored networks.
func (s *MongoStore) Networks(ctx context.Context) ([]string, error) {
	ids, err := s.coll.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo distinct: %w", err)
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := id.(string); ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
