package sink

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afdp/internal/config"
	"afdp/internal/logger"
	"afdp/internal/models"
	"afdp/internal/sink/sqldoc"
)

var errUnreachable = errors.New("connection refused")

// MockCollection implements Collection for testing.
type MockCollection struct {
	PingErr   error
	FailBatch int
	Batches   [][]models.EnergyRecord
	RunIDs    []string
}

func (m *MockCollection) Ping(context.Context) error { return m.PingErr }

func (m *MockCollection) InsertBatch(_ context.Context, runID string, records []models.EnergyRecord) (int, error) {
	if m.FailBatch > 0 && len(m.Batches)+1 == m.FailBatch {
		return 0, errUnreachable
	}

	m.Batches = append(m.Batches, records)
	m.RunIDs = append(m.RunIDs, runID)

	return len(records), nil
}

func (m *MockCollection) Close(context.Context) error { return nil }

func makeRecords(n int) []models.EnergyRecord {
	records := make([]models.EnergyRecord, n)
	for i := range records {
		records[i] = models.EnergyRecord{Country: "KEN", Year: 2000 + i%23, Subsector: models.SubsectorAccess, Indicator: "a"}
	}

	return records
}

func TestLoader_Batches(t *testing.T) {
	mock := &MockCollection{}
	loader := NewLoader(mock, 500, logger.Discard())

	result, err := loader.Load(context.Background(), "run-1", makeRecords(1201))
	require.NoError(t, err)

	assert.Equal(t, &LoadResult{Inserted: 1201, Batches: 3}, result)
	require.Len(t, mock.Batches, 3)
	assert.Len(t, mock.Batches[0], 500)
	assert.Len(t, mock.Batches[2], 201)
	assert.Equal(t, []string{"run-1", "run-1", "run-1"}, mock.RunIDs)
}

func TestLoader_DefaultBatchSize(t *testing.T) {
	mock := &MockCollection{}

	result, err := NewLoader(mock, 0, logger.Discard()).Load(context.Background(), "r", makeRecords(501))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Batches)
}

func TestLoader_Empty(t *testing.T) {
	mock := &MockCollection{}

	result, err := NewLoader(mock, 10, logger.Discard()).Load(context.Background(), "r", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Inserted)
	assert.Empty(t, mock.Batches)
}

func TestLoader_PingFailure(t *testing.T) {
	mock := &MockCollection{PingErr: errUnreachable}

	_, err := NewLoader(mock, 10, logger.Discard()).Load(context.Background(), "r", makeRecords(3))
	assert.ErrorIs(t, err, models.ErrConnectivity)
	assert.ErrorIs(t, err, errUnreachable)
	assert.Empty(t, mock.Batches)
}

func TestLoader_BatchFailureAborts(t *testing.T) {
	mock := &MockCollection{FailBatch: 2}

	result, err := NewLoader(mock, 10, logger.Discard()).Load(context.Background(), "r", makeRecords(35))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrConnectivity)
	assert.Contains(t, err.Error(), "insert batch 2 (records 10-19)")
	assert.Equal(t, &LoadResult{Inserted: 10, Batches: 1}, result)
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.SinkConfig{
		Driver:     config.SinkSQLite,
		URI:        filepath.Join(t.TempDir(), "energy.db"),
		Collection: "energy_data",
		BatchSize:  2,
	}

	coll, err := Open(ctx, cfg)
	require.NoError(t, err)

	defer func() { _ = coll.Close(ctx) }()

	result, err := NewLoader(coll, cfg.BatchSize, logger.Discard()).Load(ctx, "run-x", makeRecords(5))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Batches)

	store, ok := coll.(*sqldoc.Store)
	require.True(t, ok)

	n, err := store.Count(ctx, "run-x")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.SinkConfig{Driver: "redis"})
	assert.ErrorIs(t, err, config.ErrInvalidSinkDriver)
}
