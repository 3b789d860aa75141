// Package pipeline drives one Extract, Normalize, Validate, Load run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"afdp/internal/formatter"
	"afdp/internal/logger"
	"afdp/internal/metrics"
	"afdp/internal/models"
	"afdp/internal/normalizer"
	"afdp/internal/sink"
	"afdp/internal/validator"
	"afdp/pkg/metadata"
)

// State is a pipeline stage or a terminal state.
type State string

// Pipeline states in execution order.
const (
	StateExtract   State = "Extract"
	StateNormalize State = "Normalize"
	StateValidate  State = "Validate"
	StateLoad      State = "Load"
	StateSucceeded State = "Succeeded"
	StateFailed    State = "Failed"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Extractor produces raw records.
type Extractor interface {
	Extract(ctx context.Context) ([]models.RawRecord, error)
}

// Loader persists normalized records.
type Loader interface {
	Load(ctx context.Context, runID string, records []models.EnergyRecord) (*sink.LoadResult, error)
}

// Archiver copies artifact files somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, runID string, files []string) error
}

// Counts tracks record totals across stages.
type Counts struct {
	Extracted  int `json:"extracted"`
	Normalized int `json:"normalized"`
	Rejected   int `json:"rejected"`
	Loaded     int `json:"loaded"`
}

// Outcome is the result of a run.
type Outcome struct {
	Err         error
	Report      *models.ValidationReport
	RunID       string
	State       State
	FailedStage State
	Rejections  []normalizer.Rejection
	Files       []string
	Counts      Counts
	Duration    time.Duration
}

// Succeeded reports whether the run ended in StateSucceeded.
func (o *Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

// Options wires a Driver. Loader, Archiver and PushgatewayURL are optional.
type Options struct {
	Extractor      Extractor
	Loader         Loader
	Archiver       Archiver
	Metrics        *metrics.Metrics
	Log            *logger.Logger
	NewRunID       func() string
	OutputDir      string
	PushgatewayURL string
	Job            string
	LinkBase       string
	Policy         models.ValidationPolicy
	SkipInvalid    bool
	Pretty         bool
}

// Driver runs the stages in order and stops at the first failure.
type Driver struct {
	opts      Options
	processor *normalizer.Processor
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewDriver creates a driver, filling unset optional dependencies.
func NewDriver(opts Options) *Driver {
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}

	return &Driver{
		opts:      opts,
		processor: normalizer.NewProcessor(opts.SkipInvalid).WithLinkBase(opts.LinkBase),
		metrics:   opts.Metrics,
		log:       opts.Log,
	}
}

// run carries data between stages.
type run struct {
	out     *Outcome
	log     *logger.Logger
	raws    []models.RawRecord
	records []models.EnergyRecord
}

type stage struct {
	fn    func(ctx context.Context, r *run) error
	state State
}

// Run executes the pipeline. The returned outcome is always in a terminal state.
func (d *Driver) Run(ctx context.Context) *Outcome {
	start := time.Now()
	r := &run{out: &Outcome{RunID: d.opts.NewRunID()}}
	r.log = d.log.With("run_id", r.out.RunID)

	r.log.Info("🚀 Pipeline started", "output", d.opts.OutputDir)

	stages := []stage{
		{state: StateExtract, fn: d.extract},
		{state: StateNormalize, fn: d.normalize},
		{state: StateValidate, fn: d.validate},
		{state: StateLoad, fn: d.load},
	}

	for _, st := range stages {
		r.out.State = st.state

		if err := d.step(ctx, r, st); err != nil {
			r.out.FailedStage = st.state
			r.out.State = StateFailed
			r.out.Err = fmt.Errorf("%s: %w", strings.ToLower(string(st.state)), err)

			r.log.Error("❌ Stage failed", "stage", st.state, "error", err)

			break
		}
	}

	if r.out.State != StateFailed {
		r.out.State = StateSucceeded
	}

	d.finish(ctx, r)
	r.out.Duration = time.Since(start)

	r.log.Info("✨ Pipeline finished", "state", r.out.State, "duration", r.out.Duration)

	return r.out
}

func (d *Driver) step(ctx context.Context, r *run, st stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.log.Info("Stage started", "stage", st.state)

	begin := time.Now()
	err := st.fn(ctx, r)
	elapsed := time.Since(begin)

	d.metrics.ObserveStage(strings.ToLower(string(st.state)), elapsed)

	if err == nil {
		r.log.Info("Stage finished", "stage", st.state, "duration", elapsed)
	}

	return err
}

func (d *Driver) extract(ctx context.Context, r *run) error {
	raws, err := d.opts.Extractor.Extract(ctx)
	if err != nil {
		return err
	}

	r.raws = raws
	r.out.Counts.Extracted = len(raws)
	d.metrics.RecordsExtracted.Add(float64(len(raws)))

	return d.write(r, RawFile, raws)
}

func (d *Driver) normalize(_ context.Context, r *run) error {
	result, err := d.processor.Process(r.raws)
	if err != nil {
		return err
	}

	r.records = result.Records
	r.out.Rejections = result.Rejections
	r.out.Counts.Normalized = len(result.Records)
	r.out.Counts.Rejected = len(result.Rejections)
	d.metrics.RecordsNormalized.Add(float64(len(result.Records)))
	d.metrics.RecordsRejected.Add(float64(len(result.Rejections)))

	if len(result.Rejections) > 0 {
		r.log.Warn("⚠️  Records rejected", "count", len(result.Rejections), "first", result.Rejections[0].Reason)
	}

	if err := d.write(r, RecordsFile, r.records); err != nil {
		return err
	}

	return d.write(r, FormattedFile, formatter.PivotWithProvenance(r.records, result.Provenance))
}

func (d *Driver) validate(_ context.Context, r *run) error {
	report := validator.Validate(r.records)
	r.out.Report = report
	d.metrics.SetReport(report)

	if err := d.write(r, ReportFile, report); err != nil {
		return err
	}

	r.log.Info("Validation report",
		"total_records", report.TotalRecords,
		"missing_years", report.MissingYears,
		"duplicates", report.Duplicates,
		"countries_missing_subsectors", report.CountriesMissingSubsector)

	if !report.Passed(d.opts.Policy) {
		return fmt.Errorf("%w: %d missing years, %d duplicates, %d countries missing subsectors",
			models.ErrValidationFailed, report.MissingYears, report.Duplicates, report.CountriesMissingSubsector)
	}

	return nil
}

func (d *Driver) load(ctx context.Context, r *run) error {
	if d.opts.Loader == nil {
		r.log.Info("No sink configured, skipping load")

		return nil
	}

	result, err := d.opts.Loader.Load(ctx, r.out.RunID, r.records)
	if result != nil {
		r.out.Counts.Loaded = result.Inserted
		d.metrics.RecordsLoaded.Add(float64(result.Inserted))
	}

	return err
}

func (d *Driver) write(r *run, name string, v any) error {
	path := filepath.Join(d.opts.OutputDir, name)
	if err := WriteJSON(path, v, d.opts.Pretty); err != nil {
		return err
	}

	r.out.Files = append(r.out.Files, path)
	r.log.Debug("Artifact written", "path", path)

	return nil
}

// finish writes the manifest, archives artifacts and pushes metrics.
// None of these change the outcome.
func (d *Driver) finish(ctx context.Context, r *run) {
	d.metrics.SetSuccess(r.out.Succeeded())

	if len(r.out.Files) > 0 {
		manifest, err := metadata.Build(r.out.RunID, string(r.out.State), r.out.Files)
		if err == nil {
			var path string
			if path, err = manifest.Write(d.opts.OutputDir); err == nil {
				r.out.Files = append(r.out.Files, path)
			}
		}

		if err != nil {
			r.log.Warn("⚠️  Manifest not written", "error", err)
		}
	}

	if d.opts.Archiver != nil && len(r.out.Files) > 0 {
		if err := d.opts.Archiver.Archive(ctx, r.out.RunID, r.out.Files); err != nil {
			r.log.Warn("⚠️  Archive failed", "error", err)
		}
	}

	if d.opts.PushgatewayURL != "" {
		if err := d.metrics.Push(ctx, d.opts.PushgatewayURL, d.opts.Job, r.out.RunID); err != nil {
			r.log.Warn("⚠️  Metrics push failed", "error", err)
		}
	}
}
