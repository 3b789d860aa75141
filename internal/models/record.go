// Package models defines the data shapes that flow through the energy pipeline.
package models

import (
	"fmt"
	"strings"
)

// Covered year range, inclusive on both ends.
const (
	FirstYear = 2000
	LastYear  = 2022
)

// Subsector is a category of energy statistic.
type Subsector string

// Known subsectors.
const (
	SubsectorAccess    Subsector = "Access"
	SubsectorSupply    Subsector = "Supply"
	SubsectorTechnical Subsector = "Technical"
)

// Subsectors lists every subsector in canonical order.
var Subsectors = []Subsector{SubsectorAccess, SubsectorSupply, SubsectorTechnical}

// ParseSubsector matches a subsector name case-insensitively.
func ParseSubsector(s string) (Subsector, bool) {
	s = strings.TrimSpace(s)
	for _, sub := range Subsectors {
		if strings.EqualFold(string(sub), s) {
			return sub, true
		}
	}

	return "", false
}

// Years returns every year of the covered range in ascending order.
func Years() []int {
	years := make([]int, 0, LastYear-FirstYear+1)
	for y := FirstYear; y <= LastYear; y++ {
		years = append(years, y)
	}

	return years
}

// YearInRange reports whether y lies inside the covered range.
func YearInRange(y int) bool {
	return y >= FirstYear && y <= LastYear
}

// RawRecord is a single heterogeneous record as returned by the portal API.
type RawRecord map[string]any

// EnergyRecord is one normalized observation. Treat values as immutable once built.
type EnergyRecord struct {
	Value     *float64  `json:"value" bson:"value"`
	Country   string    `json:"country" bson:"country"`
	Subsector Subsector `json:"subsector" bson:"subsector"`
	Indicator string    `json:"indicator" bson:"indicator"`
	Unit      string    `json:"unit" bson:"unit"`
	Year      int       `json:"year" bson:"year"`
}

// RecordKey is the uniqueness tuple of an EnergyRecord.
type RecordKey struct {
	Country   string
	Subsector Subsector
	Indicator string
	Year      int
}

// String renders the key as country/year/subsector/indicator.
func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%d/%s/%s", k.Country, k.Year, k.Subsector, k.Indicator)
}

// Key returns the record's uniqueness tuple.
func (r EnergyRecord) Key() RecordKey {
	return RecordKey{
		Country:   r.Country,
		Year:      r.Year,
		Subsector: r.Subsector,
		Indicator: r.Indicator,
	}
}

// Float returns a pointer to v, for building nullable values.
func Float(v float64) *float64 {
	return &v
}
