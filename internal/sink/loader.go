// Package sink loads normalized records into a document collection.
package sink

import (
	"context"
	"fmt"

	"afdp/internal/logger"
	"afdp/internal/models"
)

// DefaultBatchSize matches the portal export batch size.
const DefaultBatchSize = 500

// Collection is an insert-only document collection.
type Collection interface {
	Ping(ctx context.Context) error
	InsertBatch(ctx context.Context, runID string, records []models.EnergyRecord) (int, error)
	Close(ctx context.Context) error
}

// LoadResult contains the results of a load operation.
type LoadResult struct {
	Inserted int `json:"inserted"`
	Batches  int `json:"batches"`
}

// Loader writes records to a Collection in fixed-size batches.
type Loader struct {
	coll      Collection
	logger    *logger.Logger
	batchSize int
}

// NewLoader creates a loader. A non-positive batchSize falls back to DefaultBatchSize.
func NewLoader(coll Collection, batchSize int, log *logger.Logger) *Loader {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	return &Loader{
		coll:      coll,
		logger:    log,
		batchSize: batchSize,
	}
}

// Load pings the collection, then inserts records batch by batch. Loading is
// insert-only: duplicates must be rejected before this point. The returned result
// reflects what was written even when an error aborts the load.
func (l *Loader) Load(ctx context.Context, runID string, records []models.EnergyRecord) (*LoadResult, error) {
	result := &LoadResult{}

	if err := l.coll.Ping(ctx); err != nil {
		return result, fmt.Errorf("%w: ping sink: %w", models.ErrConnectivity, err)
	}

	for start := 0; start < len(records); start += l.batchSize {
		end := min(start+l.batchSize, len(records))

		n, err := l.coll.InsertBatch(ctx, runID, records[start:end])
		result.Inserted += n

		if err != nil {
			return result, fmt.Errorf("%w: insert batch %d (records %d-%d): %w",
				models.ErrConnectivity, result.Batches+1, start, end-1, err)
		}

		result.Batches++
		l.logger.Debug("batch inserted", "batch", result.Batches, "records", n)
	}

	l.logger.Info("load complete", "inserted", result.Inserted, "batches", result.Batches)

	return result, nil
}
