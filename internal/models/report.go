package models

// ValidationReport summarizes the completeness and consistency checks of one run.
type ValidationReport struct {
	MissingYearDetails      []MissingYears      `json:"missing_year_details,omitempty"`
	DuplicateKeys           []string            `json:"duplicate_keys,omitempty"`
	MissingSubsectorDetails []MissingSubsectors `json:"missing_subsector_details,omitempty"`

	TotalRecords              int `json:"total_records"`
	MissingYears              int `json:"missing_years"`
	Duplicates                int `json:"duplicates"`
	CountriesMissingSubsector int `json:"countries_missing_subsectors"`
}

// MissingYears lists the absent years of one (country, subsector) pair.
type MissingYears struct {
	Country   string    `json:"country"`
	Subsector Subsector `json:"subsector"`
	Years     []int     `json:"years"`
}

// MissingSubsectors lists the subsectors a country has no records for.
type MissingSubsectors struct {
	Country    string      `json:"country"`
	Subsectors []Subsector `json:"subsectors"`
}

// ValidationPolicy decides which report counters fail a run.
type ValidationPolicy struct {
	FailOnMissing bool
}

// Passed reports whether the report satisfies policy.
// Duplicates always fail: the sink is insert-only.
func (r *ValidationReport) Passed(policy ValidationPolicy) bool {
	if r.Duplicates > 0 {
		return false
	}

	if policy.FailOnMissing && (r.MissingYears > 0 || r.CountriesMissingSubsector > 0) {
		return false
	}

	return true
}

// IsClean reports whether every counter besides the total is zero.
func (r *ValidationReport) IsClean() bool {
	return r.MissingYears == 0 && r.Duplicates == 0 && r.CountriesMissingSubsector == 0
}
