// Package store persists named diagram snapshots in MongoDB. The
// snapshot command saves a scan's diagram under a name so later runs
// can diff or re-render it without touching the original filesystem.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkoelbl/treescope/pkg/cache"
	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/errors"
)

const (
	databaseName   = "treescope"
	collectionName = "snapshots"
	connectTimeout = 10 * time.Second
)

// Snapshot is a stored diagram with its bookkeeping fields.
type Snapshot struct {
	ID        string          `bson:"_id" json:"id"`
	Name      string          `bson:"name" json:"name"`
	Root      string          `bson:"root" json:"root"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	Diagram   diagram.Diagram `bson:"diagram" json:"diagram"`
}

// SnapshotStore saves and loads snapshots from a MongoDB collection.
type SnapshotStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewSnapshotStore connects to MongoDB at uri and verifies the
// connection with a ping.
func NewSnapshotStore(ctx context.Context, uri string) (*SnapshotStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect to snapshot store")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "ping snapshot store")
	}

	return &SnapshotStore{
		client: client,
		coll:   client.Database(databaseName).Collection(collectionName),
	}, nil
}

// Save stores the diagram under name, replacing any snapshot that
// already carries that name. Transient write failures are retried.
func (s *SnapshotStore) Save(ctx context.Context, name string, d diagram.Diagram) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Root:      d.Root,
		CreatedAt: time.Now().UTC(),
		Diagram:   d,
	}

	err := cache.RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"name": name}, snap, options.Replace().SetUpsert(true))
		if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
			return cache.Retryable(err)
		}
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "save snapshot %s", name)
	}
	return snap, nil
}

// Load retrieves the snapshot stored under name.
func (s *SnapshotStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	var snap Snapshot
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&snap)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "no such snapshot: %s", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "load snapshot %s", name)
	}
	return &snap, nil
}

// List returns all snapshots without their diagram payloads, newest
// first.
func (s *SnapshotStore) List(ctx context.Context) ([]Snapshot, error) {
	opts := options.Find().
		SetProjection(bson.M{"diagram": 0}).
		SetSort(bson.M{"created_at": -1})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "list snapshots")
	}
	defer cur.Close(ctx)

	var snaps []Snapshot
	if err := cur.All(ctx, &snaps); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "decode snapshots")
	}
	return snaps, nil
}

// Delete removes the snapshot stored under name.
func (s *SnapshotStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "delete snapshot %s", name)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "no such snapshot: %s", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *SnapshotStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
