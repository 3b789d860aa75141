// Package normalizer maps raw portal records onto the canonical EnergyRecord schema.
package normalizer

import (
	"fmt"

	"afdp/internal/models"
)

// Rejection records why a raw record was dropped.
type Rejection struct {
	Reason string `json:"reason"`
	Index  int    `json:"index"`
}

// Result is the outcome of normalizing a batch.
type Result struct {
	Records    []models.EnergyRecord
	Rejections []Rejection
	// Provenance holds the first non-empty portal identifiers seen per series.
	Provenance map[models.SeriesKey]models.Provenance
}

// Processor handles validation and transformation of raw records.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	skipInvalid bool
}

// NewProcessor creates a processor. With skipInvalid unset, the first rejection aborts the batch.
func NewProcessor(skipInvalid bool) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
		skipInvalid: skipInvalid,
	}
}

// WithLinkBase resolves relative page links against base instead of the public portal.
func (p *Processor) WithLinkBase(base string) *Processor {
	if base != "" {
		p.transformer.linkBase = base
	}

	return p
}

// Normalize maps a single raw record. It is a pure function of raw.
func (p *Processor) Normalize(raw models.RawRecord) (models.EnergyRecord, error) {
	if err := p.validator.Validate(raw); err != nil {
		return models.EnergyRecord{}, err
	}

	return p.transformer.Transform(raw)
}

// Process normalizes raws in order.
func (p *Processor) Process(raws []models.RawRecord) (*Result, error) {
	result := &Result{
		Records:    make([]models.EnergyRecord, 0, len(raws)),
		Provenance: make(map[models.SeriesKey]models.Provenance),
	}

	for i, raw := range raws {
		record, err := p.Normalize(raw)
		if err != nil {
			if !p.skipInvalid {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}

			result.Rejections = append(result.Rejections, Rejection{Index: i, Reason: err.Error()})

			continue
		}

		result.Records = append(result.Records, record)

		key := models.SeriesKey{Country: record.Country, Indicator: record.Indicator}
		if _, ok := result.Provenance[key]; !ok {
			if prov := p.transformer.Provenance(raw); !prov.IsZero() {
				result.Provenance[key] = prov
			}
		}
	}

	return result, nil
}
