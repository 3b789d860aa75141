package normalizer

import (
	"fmt"
	"strings"

	"afdp/internal/models"
)

// Field aliases accepted from the portal, first non-empty wins.
var (
	countryFields   = []string{"country", "name", "country_code", "iso3"}
	yearFields      = []string{"year"}
	subsectorFields = []string{"subsector", "sub_sector", "indicator_topic"}
	indicatorFields = []string{"indicator", "indicator_name", "metric"}
	valueFields     = []string{"value", "score"}
	unitFields      = []string{"unit"}
	serialFields    = []string{"country_serial", "id"}
	sectorFields    = []string{"sector", "indicator_group"}
	linkFields      = []string{"source_link", "url"}
)

// Validator checks that a raw record carries every required field.
type Validator struct {
	required map[string][]string
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{
		required: map[string][]string{
			"country":   countryFields,
			"year":      yearFields,
			"subsector": subsectorFields,
			"indicator": indicatorFields,
		},
	}
}

// Validate returns an ErrSchema-wrapped error naming the first absent required field.
func (v *Validator) Validate(raw models.RawRecord) error {
	if raw == nil {
		return fmt.Errorf("%w: record is empty", models.ErrSchema)
	}

	for _, name := range []string{"country", "year", "subsector", "indicator"} {
		if _, ok := lookup(raw, v.required[name]); !ok {
			return fmt.Errorf("%w: missing required field %q", models.ErrSchema, name)
		}
	}

	return nil
}

// lookup returns the first alias whose value is present and not blank.
func lookup(raw models.RawRecord, aliases []string) (any, bool) {
	for _, key := range aliases {
		val, ok := raw[key]
		if !ok || val == nil {
			continue
		}

		if s, isString := val.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}

		return val, true
	}

	return nil, false
}
