// Package formatter reshapes normalized records for humans and for the dashboard layout.
package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"afdp/internal/models"
)

// FormatTable renders header and rows as a markdown table whose columns line up
// by display width, so names like "São Tomé and Príncipe" do not skew the layout.
func FormatTable(header []string, rows [][]string) string {
	colCount := len(header)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	measure := func(row []string) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(row[i]); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	measure(header)

	for _, row := range rows {
		measure(row)
	}

	// Separator needs at least "---".
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	var sb strings.Builder

	writeRow := func(row []string) {
		sb.WriteString("|")

		for j := range colCount {
			content := ""
			if j < len(row) {
				content = row[j]
			}

			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(content, colWidths[j]))
			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	writeRow(header)

	sb.WriteString("|")

	for j := range colCount {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", colWidths[j]))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")

	for _, row := range rows {
		writeRow(row)
	}

	return sb.String()
}

// RenderReport renders the report counters as a two-column table.
func RenderReport(report *models.ValidationReport) string {
	rows := [][]string{
		{"total_records", strconv.Itoa(report.TotalRecords)},
		{"missing_years", strconv.Itoa(report.MissingYears)},
		{"duplicates", strconv.Itoa(report.Duplicates)},
		{"countries_missing_subsectors", strconv.Itoa(report.CountriesMissingSubsector)},
	}

	return FormatTable([]string{"check", "count"}, rows)
}

// RenderCoverage renders one row per country with record counts per subsector.
func RenderCoverage(records []models.EnergyRecord) string {
	counts := make(map[string]map[models.Subsector]int)

	for _, r := range records {
		bySub, ok := counts[r.Country]
		if !ok {
			bySub = make(map[models.Subsector]int)
			counts[r.Country] = bySub
		}

		bySub[r.Subsector]++
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	header := []string{"code", "country"}
	for _, sub := range models.Subsectors {
		header = append(header, string(sub))
	}

	rows := make([][]string, 0, len(codes))

	for _, code := range codes {
		row := []string{code, models.CountryName(code)}
		for _, sub := range models.Subsectors {
			row = append(row, fmt.Sprint(counts[code][sub]))
		}

		rows = append(rows, row)
	}

	return FormatTable(header, rows)
}
