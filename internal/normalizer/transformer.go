package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"afdp/internal/models"
	"afdp/pkg/utils"
)

// Transformer maps validated raw records onto the canonical EnergyRecord shape.
type Transformer struct {
	linkBase string
}

// NewTransformer creates a transformer that resolves page links against the public portal.
func NewTransformer() *Transformer {
	return &Transformer{linkBase: models.PortalBaseURL}
}

// Provenance reads the portal identifiers carried by raw. Absent fields stay empty.
func (t *Transformer) Provenance(raw models.RawRecord) models.Provenance {
	var prov models.Provenance

	if v, ok := lookup(raw, serialFields); ok {
		prov.CountrySerial = utils.NormalizeWhitespace(fmt.Sprint(v))
	}

	if v, ok := lookup(raw, sectorFields); ok {
		prov.Sector = utils.NormalizeWhitespace(toString(v))
	}

	if v, ok := lookup(raw, linkFields); ok {
		prov.SourceLink = t.resolveLink(strings.TrimSpace(toString(v)))
	}

	return prov
}

// resolveLink keeps absolute links and prefixes relative ones with the portal base.
func (t *Transformer) resolveLink(link string) string {
	if link == "" || strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}

	return strings.TrimRight(t.linkBase, "/") + "/" + strings.TrimLeft(link, "/")
}

// Transform converts raw into an EnergyRecord. It does not check required fields; see Validator.
func (t *Transformer) Transform(raw models.RawRecord) (models.EnergyRecord, error) {
	countryVal, _ := lookup(raw, countryFields)

	country, ok := models.LookupCountry(toString(countryVal))
	if !ok {
		return models.EnergyRecord{}, fmt.Errorf("%w: unknown country %q", models.ErrSchema, toString(countryVal))
	}

	yearVal, _ := lookup(raw, yearFields)

	year, err := parseYear(yearVal)
	if err != nil {
		return models.EnergyRecord{}, err
	}

	if !models.YearInRange(year) {
		return models.EnergyRecord{}, fmt.Errorf("%w: %w: %d not in [%d, %d]",
			models.ErrSchema, models.ErrRange, year, models.FirstYear, models.LastYear)
	}

	subVal, _ := lookup(raw, subsectorFields)

	subsector, ok := models.ParseSubsector(toString(subVal))
	if !ok {
		return models.EnergyRecord{}, fmt.Errorf("%w: unknown subsector %q", models.ErrSchema, toString(subVal))
	}

	indicatorVal, _ := lookup(raw, indicatorFields)

	indicator := utils.NormalizeWhitespace(toString(indicatorVal))
	if indicator == "" {
		return models.EnergyRecord{}, fmt.Errorf("%w: indicator is not a string", models.ErrSchema)
	}

	valueVal, _ := lookup(raw, valueFields)

	value, err := parseValue(valueVal)
	if err != nil {
		return models.EnergyRecord{}, err
	}

	unitVal, _ := lookup(raw, unitFields)

	return models.EnergyRecord{
		Country:   country.Code,
		Year:      year,
		Subsector: subsector,
		Indicator: indicator,
		Value:     value,
		Unit:      utils.NormalizeWhitespace(toString(unitVal)),
	}, nil
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

func parseYear(v any) (int, error) {
	var f float64

	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: year %q is not numeric", models.ErrSchema, val)
		}

		f = parsed
	case float64:
		f = val
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%w: year %q is not an integer", models.ErrSchema, val)
		}

		return parsed, nil
	default:
		return 0, fmt.Errorf("%w: year has type %T", models.ErrSchema, v)
	}

	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: year %v is not an integer", models.ErrSchema, f)
	}

	return int(f), nil
}

// parseValue maps portal placeholders for "no data" onto nil.
func parseValue(v any) (*float64, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: value %q is not numeric", models.ErrSchema, val)
		}

		return finite(f), nil
	case float64:
		return finite(val), nil
	case int:
		return models.Float(float64(val)), nil
	case int64:
		return models.Float(float64(val)), nil
	case string:
		s := strings.TrimSpace(val)
		switch strings.ToLower(s) {
		case "", "nan", "-", "n/a", "null":
			return nil, nil
		}

		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %q is not numeric", models.ErrSchema, val)
		}

		return finite(f), nil
	default:
		return nil, fmt.Errorf("%w: value has type %T", models.ErrSchema, v)
	}
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return models.Float(f)
}
