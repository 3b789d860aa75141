// Package mongodoc stores energy records in a MongoDB collection.
package mongodoc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"afdp/internal/models"
)

// Document is the stored shape: the record fields plus load bookkeeping.
type Document struct {
	models.EnergyRecord `bson:",inline"`

	RunID    string    `bson:"run_id"`
	LoadedAt time.Time `bson:"loaded_at"`
}

// writer is the subset of the driver the store needs; tests substitute it.
type writer interface {
	ping(ctx context.Context) error
	insertMany(ctx context.Context, docs []any) (int, error)
	disconnect(ctx context.Context) error
}

// Store is an insert-only MongoDB collection.
type Store struct {
	w   writer
	now func() time.Time
}

// Open configures a client for uri. The driver connects lazily; Ping verifies reachability.
func Open(uri, database, collection string, timeout time.Duration) (*Store, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	return newStore(&driverWriter{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}), nil
}

func newStore(w writer) *Store {
	return &Store{w: w, now: time.Now}
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.w.ping(ctx)
}

// InsertBatch inserts records as one InsertMany call.
func (s *Store) InsertBatch(ctx context.Context, runID string, records []models.EnergyRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	loadedAt := s.now().UTC()

	docs := make([]any, 0, len(records))
	for _, r := range records {
		docs = append(docs, Document{EnergyRecord: r, RunID: runID, LoadedAt: loadedAt})
	}

	return s.w.insertMany(ctx, docs)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.w.disconnect(ctx)
}

type driverWriter struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func (d *driverWriter) ping(ctx context.Context) error {
	if err := d.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

func (d *driverWriter) insertMany(ctx context.Context, docs []any) (int, error) {
	res, err := d.coll.InsertMany(ctx, docs)
	if err != nil {
		// Ordered inserts stop at the first failure; res still lists what went in.
		inserted := 0
		if res != nil {
			inserted = len(res.InsertedIDs)
		}

		return inserted, fmt.Errorf("insert many: %w", err)
	}

	return len(res.InsertedIDs), nil
}

func (d *driverWriter) disconnect(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
