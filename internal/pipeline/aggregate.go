package pipeline

import (
	"sort"

	"vaxboard/pkg/contracts/domain"
)

// LatestPerCountry reduces the records to one row per country, the one
// with the newest date. Ties on date resolve to the later input row, so
// the reduction is deterministic for any input order. The result is
// sorted by country name.
func LatestPerCountry(records []domain.VaccinationRecord) []domain.VaccinationRecord {
	byDate := make([]domain.VaccinationRecord, len(records))
	copy(byDate, records)
	sort.SliceStable(byDate, func(i, j int) bool {
		return byDate[i].Date.Before(byDate[j].Date)
	})

	latest := make(map[string]domain.VaccinationRecord, 16)
	for _, record := range byDate {
		latest[record.Country] = record
	}

	countries := make([]string, 0, len(latest))
	for country := range latest {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	result := make([]domain.VaccinationRecord, 0, len(countries))
	for _, country := range countries {
		result = append(result, latest[country])
	}

	return result
}

// CleanNumeric drops rows missing any of the four metric values, giving
// a gap-free table for plots and descriptive statistics.
func CleanNumeric(records []domain.VaccinationRecord) []domain.VaccinationRecord {
	clean := make([]domain.VaccinationRecord, 0, len(records))
	for _, record := range records {
		if record.Complete() {
			clean = append(clean, record)
		}
	}
	return clean
}

// SumMetric totals a metric column across the records, skipping missing
// values. The second return reports how many values contributed.
func SumMetric(records []domain.VaccinationRecord, column domain.MetricColumn) (float64, int) {
	var sum float64
	var count int
	for _, record := range records {
		if value := record.Metric(column); value != nil {
			sum += *value
			count++
		}
	}
	return sum, count
}

// UniqueCountries counts distinct countries present in the records.
func UniqueCountries(records []domain.VaccinationRecord) int {
	seen := make(map[string]bool, 16)
	for _, record := range records {
		seen[record.Country] = true
	}
	return len(seen)
}
