package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afdp/internal/config"
	"afdp/internal/logger"
	"afdp/internal/metrics"
	"afdp/internal/models"
	"afdp/internal/sink"
	"afdp/internal/sink/sqldoc"
	"afdp/pkg/metadata"
)

type stubExtractor struct {
	err  error
	raws []models.RawRecord
}

func (s *stubExtractor) Extract(ctx context.Context) ([]models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.raws, s.err
}

type stubLoader struct {
	err     error
	runID   string
	records []models.EnergyRecord
	calls   int
}

func (s *stubLoader) Load(_ context.Context, runID string, records []models.EnergyRecord) (*sink.LoadResult, error) {
	s.calls++
	s.runID = runID
	s.records = records

	if s.err != nil {
		return &sink.LoadResult{Inserted: 2, Batches: 1}, s.err
	}

	return &sink.LoadResult{Inserted: len(records), Batches: 1}, nil
}

type stubArchiver struct {
	err   error
	files []string
}

func (s *stubArchiver) Archive(_ context.Context, _ string, files []string) error {
	s.files = files

	return s.err
}

func rawRecord(country, subsector string, year int) models.RawRecord {
	return models.RawRecord{
		"name":            country,
		"indicator_topic": subsector,
		"indicator_name":  subsector + " indicator",
		"year":            year,
		"score":           1.5,
		"unit":            "%",
	}
}

// fullDataset covers every subsector and year for each country.
func fullDataset(countries ...string) []models.RawRecord {
	var raws []models.RawRecord

	for _, c := range countries {
		for _, sub := range models.Subsectors {
			for _, y := range models.Years() {
				raws = append(raws, rawRecord(c, string(sub), y))
			}
		}
	}

	return raws
}

func newTestDriver(t *testing.T, opts Options) (*Driver, string) {
	t.Helper()

	dir := t.TempDir()
	opts.OutputDir = dir
	opts.Log = logger.Discard()
	opts.NewRunID = func() string { return "run-1" }

	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return NewDriver(opts), dir
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateLoad.Terminal())
}

func TestDriver_Succeeded(t *testing.T) {
	loader := &stubLoader{}
	archiver := &stubArchiver{}
	m := metrics.New()

	d, dir := newTestDriver(t, Options{
		Extractor: &stubExtractor{raws: fullDataset("Kenya", "Ghana")},
		Loader:    loader,
		Archiver:  archiver,
		Metrics:   m,
	})

	out := d.Run(context.Background())

	require.NoError(t, out.Err)
	assert.Equal(t, StateSucceeded, out.State)
	assert.Empty(t, out.FailedStage)
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, Counts{Extracted: 138, Normalized: 138, Loaded: 138}, out.Counts)
	assert.Equal(t, &models.ValidationReport{TotalRecords: 138}, out.Report)

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, "run-1", loader.runID)
	assert.Len(t, loader.records, 138)

	for _, name := range []string{RawFile, RecordsFile, FormattedFile, ReportFile, metadata.FileName} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	require.Len(t, archiver.files, 5)
	assert.Equal(t, filepath.Join(dir, metadata.FileName), archiver.files[4])

	manifest, err := metadata.Verify(dir)
	require.NoError(t, err)
	assert.Equal(t, string(StateSucceeded), manifest.State)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunSuccess))
	assert.Equal(t, 138.0, testutil.ToFloat64(m.RecordsLoaded))
	assert.Equal(t, 4, testutil.CollectAndCount(m.StageDuration))
}

func TestDriver_WritesValidationReport(t *testing.T) {
	d, dir := newTestDriver(t, Options{Extractor: &stubExtractor{raws: fullDataset("Kenya")[1:]}})

	out := d.Run(context.Background())
	require.True(t, out.Succeeded())

	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.EqualValues(t, 68, report["total_records"])
	assert.EqualValues(t, 1, report["missing_years"])
	assert.EqualValues(t, 0, report["duplicates"])
	assert.EqualValues(t, 0, report["countries_missing_subsectors"])
}

func TestDriver_ExtractFailure(t *testing.T) {
	loader := &stubLoader{}
	d, dir := newTestDriver(t, Options{
		Extractor: &stubExtractor{err: models.ErrConnectivity},
		Loader:    loader,
	})

	out := d.Run(context.Background())

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, StateExtract, out.FailedStage)
	require.ErrorIs(t, out.Err, models.ErrConnectivity)
	assert.Contains(t, out.Err.Error(), "extract")
	assert.Nil(t, out.Report)
	assert.Zero(t, loader.calls)
	assert.NoFileExists(t, filepath.Join(dir, RecordsFile))
	assert.NoFileExists(t, filepath.Join(dir, metadata.FileName))
}

func TestDriver_NormalizeFailure(t *testing.T) {
	raws := fullDataset("Kenya")
	delete(raws[3], "year")

	d, dir := newTestDriver(t, Options{Extractor: &stubExtractor{raws: raws}, Loader: &stubLoader{}})

	out := d.Run(context.Background())

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, StateNormalize, out.FailedStage)
	require.ErrorIs(t, out.Err, models.ErrSchema)
	assert.Equal(t, 69, out.Counts.Extracted)
	assert.FileExists(t, filepath.Join(dir, RawFile))

	manifest, err := metadata.Verify(dir)
	require.NoError(t, err)
	assert.Equal(t, string(StateFailed), manifest.State)
	assert.Len(t, manifest.Files, 1)
}

func TestDriver_SkipInvalid(t *testing.T) {
	raws := fullDataset("Kenya")
	raws[3]["year"] = 1999

	d, _ := newTestDriver(t, Options{Extractor: &stubExtractor{raws: raws}, SkipInvalid: true})

	out := d.Run(context.Background())

	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, Counts{Extracted: 69, Normalized: 68, Rejected: 1}, out.Counts)
	require.Len(t, out.Rejections, 1)
	assert.Equal(t, 3, out.Rejections[0].Index)
	assert.Equal(t, 1, out.Report.MissingYears)
}

func TestDriver_DuplicatesFailValidation(t *testing.T) {
	raws := fullDataset("Kenya")
	raws = append(raws, rawRecord("Kenya", "Access", 2005))

	loader := &stubLoader{}
	d, dir := newTestDriver(t, Options{Extractor: &stubExtractor{raws: raws}, Loader: loader})

	out := d.Run(context.Background())

	assert.Equal(t, StateValidate, out.FailedStage)
	require.ErrorIs(t, out.Err, models.ErrValidationFailed)
	assert.Equal(t, 1, out.Report.Duplicates)
	assert.Zero(t, loader.calls)
	assert.FileExists(t, filepath.Join(dir, ReportFile))
}

func TestDriver_FailOnMissingPolicy(t *testing.T) {
	raws := fullDataset("Kenya")[1:]

	d, _ := newTestDriver(t, Options{
		Extractor: &stubExtractor{raws: raws},
		Policy:    models.ValidationPolicy{FailOnMissing: true},
	})

	out := d.Run(context.Background())

	assert.Equal(t, StateValidate, out.FailedStage)
	assert.ErrorIs(t, out.Err, models.ErrValidationFailed)
}

func TestDriver_LoadFailure(t *testing.T) {
	m := metrics.New()
	d, _ := newTestDriver(t, Options{
		Extractor: &stubExtractor{raws: fullDataset("Kenya")},
		Loader:    &stubLoader{err: models.ErrConnectivity},
		Metrics:   m,
	})

	out := d.Run(context.Background())

	assert.Equal(t, StateLoad, out.FailedStage)
	require.ErrorIs(t, out.Err, models.ErrConnectivity)
	assert.Equal(t, 2, out.Counts.Loaded)
	assert.Zero(t, testutil.ToFloat64(m.RunSuccess))
}

func TestDriver_ArchiveFailureKeepsOutcome(t *testing.T) {
	d, _ := newTestDriver(t, Options{
		Extractor: &stubExtractor{raws: fullDataset("Kenya")},
		Archiver:  &stubArchiver{err: errors.New("bucket gone")},
	})

	out := d.Run(context.Background())

	assert.True(t, out.Succeeded())
	assert.NoError(t, out.Err)
}

func TestDriver_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, _ := newTestDriver(t, Options{Extractor: &stubExtractor{raws: fullDataset("Kenya")}})

	out := d.Run(ctx)

	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, StateExtract, out.FailedStage)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestDriver_DeterministicOutput(t *testing.T) {
	raws := fullDataset("Kenya", "Nigeria")

	d1, dir1 := newTestDriver(t, Options{Extractor: &stubExtractor{raws: raws}})
	d2, dir2 := newTestDriver(t, Options{Extractor: &stubExtractor{raws: raws}})

	require.True(t, d1.Run(context.Background()).Succeeded())
	require.True(t, d2.Run(context.Background()).Succeeded())

	for _, name := range []string{RecordsFile, FormattedFile, ReportFile} {
		a, err := os.ReadFile(filepath.Join(dir1, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dir2, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}
}

// portalHandler serves every requested year of the queried country and subsector as a JSON array.
func portalHandler(requests *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		q := r.URL.Query()
		raws := make([]models.RawRecord, 0, len(q["year"]))

		for _, y := range q["year"] {
			raws = append(raws, models.RawRecord{
				"name":            q.Get("country"),
				"indicator_topic": q.Get("subsector"),
				"indicator_name":  q.Get("subsector") + " indicator",
				"year":            y,
				"score":           "42.5",
				"unit":            "%",
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(raws)
	}
}

func TestFromConfig_EndToEnd(t *testing.T) {
	var requests, pushes atomic.Int32

	portal := httptest.NewServer(portalHandler(&requests))
	defer portal.Close()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pushes.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "energy.db")

	cfg := config.Default()
	cfg.Source.BaseURL = portal.URL
	cfg.Source.Countries = []string{"KEN", "CIV"}
	cfg.Source.RequestsPerSecond = 1000
	cfg.Output.BasePath = filepath.Join(dir, "out")
	cfg.Sink = config.SinkConfig{
		Driver:     config.SinkSQLite,
		URI:        dbPath,
		Collection: "energy_data",
		BatchSize:  50,
		TimeoutSec: 5,
	}
	cfg.Metrics.PushgatewayURL = gateway.URL
	require.NoError(t, cfg.Validate())

	ctx := context.Background()

	d, err := FromConfig(ctx, cfg, logger.Discard())
	require.NoError(t, err)

	out := d.Run(ctx)
	require.NoError(t, out.Err)
	assert.Equal(t, StateSucceeded, out.State)
	assert.Equal(t, int32(6), requests.Load())
	assert.Equal(t, int32(1), pushes.Load())
	assert.Equal(t, Counts{Extracted: 138, Normalized: 138, Loaded: 138}, out.Counts)
	assert.True(t, out.Report.IsClean())

	store, err := sqldoc.Open(ctx, sqldoc.SQLite, dbPath, "energy_data")
	require.NoError(t, err)

	defer func() { _ = store.Close(ctx) }()

	n, err := store.Count(ctx, out.RunID)
	require.NoError(t, err)
	assert.Equal(t, 138, n)

	records, err := ReadRecords(filepath.Join(cfg.Output.BasePath, RecordsFile))
	require.NoError(t, err)
	require.Len(t, records, 138)
	require.NotNil(t, records[0].Value)
	assert.InDelta(t, 42.5, *records[0].Value, 1e-9)
}

func TestFromConfig_RawFile(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw.json")
	require.NoError(t, WriteJSON(rawPath, map[string]any{"data": fullDataset("Ghana")}, false))

	cfg := config.Default()
	cfg.Source.RawFile = rawPath
	cfg.Output.BasePath = filepath.Join(dir, "out")

	d, err := FromConfig(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	out := d.Run(context.Background())
	require.True(t, out.Succeeded(), "err: %v", out.Err)
	assert.Equal(t, 69, out.Counts.Extracted)
	assert.Zero(t, out.Counts.Loaded)
}

func TestSinkLoader_ConnectivityFailure(t *testing.T) {
	loader := NewSinkLoader(&config.SinkConfig{
		Driver:     config.SinkSQLite,
		URI:        filepath.Join(t.TempDir(), "missing", "dir", "energy.db"),
		Collection: "energy_data",
	}, logger.Discard())

	_, err := loader.Load(context.Background(), "run-1", nil)
	assert.ErrorIs(t, err, models.ErrConnectivity)
}
