package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"afdp/internal/models"
)

// Artifact file names inside the output directory.
const (
	RawFile       = "raw.json"
	RecordsFile   = "records.json"
	FormattedFile = "formatted.json"
	ReportFile    = "validation_report.json"
)

// WriteJSON marshals v to path, creating parent directories.
func WriteJSON(path string, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)

	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// ReadRecords loads a normalized records file.
func ReadRecords(path string) ([]models.EnergyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []models.EnergyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: records file %s: %w", models.ErrSchema, path, err)
	}

	return records, nil
}

// ReadSeries loads a formatted (wide) series file.
func ReadSeries(path string) ([]models.IndicatorSeries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read series: %w", err)
	}

	var series []models.IndicatorSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, fmt.Errorf("%w: series file %s: %w", models.ErrSchema, path, err)
	}

	return series, nil
}
