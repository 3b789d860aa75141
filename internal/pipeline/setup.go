package pipeline

import (
	"context"
	"fmt"

	"afdp/internal/archive"
	"afdp/internal/config"
	"afdp/internal/crawler"
	"afdp/internal/logger"
	"afdp/internal/metrics"
	"afdp/internal/models"
	"afdp/internal/sink"
)

// SinkLoader opens the configured collection on first use and closes it after loading.
type SinkLoader struct {
	cfg *config.SinkConfig
	log *logger.Logger
}

// NewSinkLoader creates a loader for cfg.
func NewSinkLoader(cfg *config.SinkConfig, log *logger.Logger) *SinkLoader {
	return &SinkLoader{cfg: cfg, log: log}
}

// Load opens the sink, loads records in batches and closes the sink.
func (s *SinkLoader) Load(ctx context.Context, runID string, records []models.EnergyRecord) (*sink.LoadResult, error) {
	coll, err := sink.Open(ctx, s.cfg)
	if err != nil {
		return nil, err
	}

	defer func() {
		if cerr := coll.Close(context.WithoutCancel(ctx)); cerr != nil {
			s.log.Warn("Failed to close sink", "error", cerr)
		}
	}()

	return sink.NewLoader(coll, s.cfg.BatchSize, s.log).Load(ctx, runID, records)
}

// NewExtractor returns a file source when source.raw_file is set, the portal client otherwise.
func NewExtractor(cfg *config.Config, log *logger.Logger) (Extractor, error) {
	if cfg.Source.RawFile != "" {
		return crawler.NewFileSource(cfg.Source.RawFile), nil
	}

	client, err := crawler.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// FromConfig builds a Driver for cfg.
func FromConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Driver, error) {
	extractor, err := NewExtractor(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	opts := Options{
		Extractor:      extractor,
		Metrics:        metrics.New(),
		Log:            log,
		OutputDir:      cfg.Output.BasePath,
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		Job:            cfg.Metrics.Job,
		LinkBase:       cfg.Source.BaseURL,
		Policy:         models.ValidationPolicy{FailOnMissing: cfg.Validation.FailOnMissing},
		SkipInvalid:    cfg.Normalize.SkipInvalid,
		Pretty:         cfg.Output.PrettyPrint,
	}

	if cfg.SinkEnabled() {
		opts.Loader = NewSinkLoader(&cfg.Sink, log)
	}

	if cfg.Archive.Enabled {
		uploader, err := archive.New(ctx, &cfg.Archive, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create archiver: %w", err)
		}

		opts.Archiver = uploader
	}

	return NewDriver(opts), nil
}
