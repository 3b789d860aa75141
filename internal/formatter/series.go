package formatter

import (
	"sort"
	"strconv"

	"afdp/internal/models"
)

// Pivot groups records into one IndicatorSeries per (country, indicator), with a
// slot for every covered year. The first record seen for a series fixes its subsector
// and unit. Output is sorted by country code, then indicator.
func Pivot(records []models.EnergyRecord) []models.IndicatorSeries {
	return PivotWithProvenance(records, nil)
}

// PivotWithProvenance is Pivot with each series stamped with prov[key], if any.
func PivotWithProvenance(records []models.EnergyRecord, prov map[models.SeriesKey]models.Provenance) []models.IndicatorSeries {
	index := make(map[models.SeriesKey]int)

	series := make([]models.IndicatorSeries, 0)

	for _, r := range records {
		key := models.SeriesKey{Country: r.Country, Indicator: r.Indicator}

		i, ok := index[key]
		if !ok {
			values := make(map[string]*float64, models.LastYear-models.FirstYear+1)
			for _, y := range models.Years() {
				values[strconv.Itoa(y)] = nil
			}

			series = append(series, models.IndicatorSeries{
				Country:     r.Country,
				CountryName: models.CountryName(r.Country),
				Indicator:   r.Indicator,
				Subsector:   r.Subsector,
				Unit:        r.Unit,
				Source:      models.SourceName,
				Values:      values,
				Provenance:  prov[key],
			})
			i = len(series) - 1
			index[key] = i
		}

		if r.Value != nil {
			v := *r.Value
			series[i].Values[strconv.Itoa(r.Year)] = &v
		}
	}

	sort.SliceStable(series, func(a, b int) bool {
		if series[a].Country != series[b].Country {
			return series[a].Country < series[b].Country
		}

		return series[a].Indicator < series[b].Indicator
	})

	return series
}
