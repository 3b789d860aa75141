// Package validator runs completeness and consistency checks over normalized energy records.
package validator

import (
	"slices"
	"sort"
	"strconv"

	"afdp/internal/models"
)

type pairKey struct {
	country   string
	subsector models.Subsector
}

// coverage accumulates which years each (country, subsector) pair has.
type coverage struct {
	pairs     map[pairKey]map[int]bool
	countries map[string]bool
}

func newCoverage() *coverage {
	return &coverage{
		pairs:     make(map[pairKey]map[int]bool),
		countries: make(map[string]bool),
	}
}

func (c *coverage) touch(country string, sub models.Subsector) map[int]bool {
	c.countries[country] = true

	key := pairKey{country: country, subsector: sub}

	years, ok := c.pairs[key]
	if !ok {
		years = make(map[int]bool)
		c.pairs[key] = years
	}

	return years
}

// fill writes the missing-year and missing-subsector findings into report.
func (c *coverage) fill(report *models.ValidationReport) {
	countries := make([]string, 0, len(c.countries))
	for country := range c.countries {
		countries = append(countries, country)
	}

	sort.Strings(countries)

	for _, country := range countries {
		var absent []models.Subsector

		for _, sub := range models.Subsectors {
			years, ok := c.pairs[pairKey{country: country, subsector: sub}]
			if !ok {
				absent = append(absent, sub)

				continue
			}

			var missing []int

			for _, y := range models.Years() {
				if !years[y] {
					missing = append(missing, y)
				}
			}

			if len(missing) > 0 {
				report.MissingYears += len(missing)
				report.MissingYearDetails = append(report.MissingYearDetails, models.MissingYears{
					Country:   country,
					Subsector: sub,
					Years:     missing,
				})
			}
		}

		if len(absent) > 0 {
			report.CountriesMissingSubsector += len(absent)
			report.MissingSubsectorDetails = append(report.MissingSubsectorDetails, models.MissingSubsectors{
				Country:    country,
				Subsectors: absent,
			})
		}
	}
}

// Validate checks records and returns a fresh report. records is not modified.
//
// Missing years are counted per (country, subsector) pair that has at least one record;
// a pair with no records at all counts once towards CountriesMissingSubsector instead.
// A record with a null value keeps its pair present but does not cover its year.
func Validate(records []models.EnergyRecord) *models.ValidationReport {
	report := &models.ValidationReport{TotalRecords: len(records)}
	cov := newCoverage()
	seen := make(map[models.RecordKey]int, len(records))

	for _, r := range records {
		years := cov.touch(r.Country, r.Subsector)
		if r.Value != nil {
			years[r.Year] = true
		}

		seen[r.Key()]++
	}

	for key, n := range seen {
		if n > 1 {
			report.Duplicates += n - 1
			report.DuplicateKeys = append(report.DuplicateKeys, key.String())
		}
	}

	slices.Sort(report.DuplicateKeys)
	cov.fill(report)

	return report
}

// ValidateSeries checks the wide layout: one series per (country, indicator).
// A year counts as observed for a pair when any of its series holds a non-null value.
func ValidateSeries(series []models.IndicatorSeries) *models.ValidationReport {
	report := &models.ValidationReport{TotalRecords: len(series)}
	cov := newCoverage()
	seen := make(map[models.SeriesKey]int, len(series))

	for _, s := range series {
		years := cov.touch(s.Country, s.Subsector)

		for label, v := range s.Values {
			if v == nil {
				continue
			}

			if y, err := strconv.Atoi(label); err == nil {
				years[y] = true
			}
		}

		seen[s.Key()]++
	}

	for key, n := range seen {
		if n > 1 {
			report.Duplicates += n - 1
			report.DuplicateKeys = append(report.DuplicateKeys, key.Country+"/"+key.Indicator)
		}
	}

	slices.Sort(report.DuplicateKeys)
	cov.fill(report)

	return report
}
