package models

const (
	// SourceName identifies where the statistics come from.
	SourceName = "Africa Energy Portal"
	// PortalBaseURL prefixes the relative page links the portal returns.
	PortalBaseURL = "https://africa-energy-portal.org"
	// ElectricityGroup is the portal's top-level indicator group.
	ElectricityGroup = "Electricity"
)

// ElectricityIndicators lists the Access, Supply and Technical indicators of the
// Electricity group.
var ElectricityIndicators = []string{
	"Population access to electricity-National (% of population)",
	"Population access to electricity-Rural (% of population)",
	"Population access to electricity-Urban (% of population)",
	"Population with access to electricity-National (millions of people)",
	"Population with access to electricity-Rural (millions of people)",
	"Population with access to electricity-Urban (millions of people)",
	"Population without access to electricity-National (millions of people)",
	"Population without access to electricity-Rural (millions of people)",
	"Population without access to electricity-Urban (millions of people)",
	"Electricity export (GWh)",
	"Electricity final consumption (GWh)",
	"Electricity final consumption per capita (KWh)",
	"Electricity generated from biofuels and waste (GWh)",
	"Electricity generated from fossil fuels (GWh)",
	"Electricity generated from geothermal energy (GWh)",
	"Electricity generated from hydropower (GWh)",
	"Electricity generated from nuclear power (GWh)",
	"Electricity generated from renewable sources (GWh)",
	"Electricity generated from solar, wind, tide, wave and other sources (GWh)",
	"Electricity generation per capita (KWh)",
	"Electricity generation, Total (GWh)",
	"Electricity import (GWh)",
	"Electricity: Net imports (+ GWh)",
	"Electricity installed capacity in Bioenergy (MW)",
	"Electricity installed capacity in Fossil fuels (MW)",
	"Electricity installed capacity in Geothermal (MW)",
	"Electricity installed capacity in Hydropower (MW)",
	"Electricity installed capacity in Non-renewable energy (MW)",
	"Electricity installed capacity in Nuclear (MW)",
	"Electricity installed capacity in Solar (MW)",
	"Electricity installed capacity in Total renewable energy (MW)",
	"Electricity installed capacity in Wind (MW)",
	"Electricity installed capacity in other Non-renewable energy (MW)",
	"Electricity installed capacity, Total (MW)",
}

// Provenance ties a series back to the portal: the country serial, the
// indicator group and the page the figures were published on.
type Provenance struct {
	CountrySerial string `json:"country_serial,omitempty"`
	Sector        string `json:"sector,omitempty"`
	SourceLink    string `json:"source_link,omitempty"`
}

// IsZero reports whether no provenance field is set.
func (p Provenance) IsZero() bool {
	return p == Provenance{}
}

// IndicatorSeries is the wide layout of one indicator for one country,
// with one value slot per covered year.
type IndicatorSeries struct {
	Values      map[string]*float64 `json:"values"`
	Country     string              `json:"country"`
	CountryName string              `json:"country_name"`
	Indicator   string              `json:"indicator"`
	Subsector   Subsector           `json:"subsector"`
	Unit        string              `json:"unit"`
	Source      string              `json:"source"`
	Provenance
}

// SeriesKey identifies an IndicatorSeries.
type SeriesKey struct {
	Country   string
	Indicator string
}

// Key returns the series' identity.
func (s IndicatorSeries) Key() SeriesKey {
	return SeriesKey{Country: s.Country, Indicator: s.Indicator}
}
