package pipeline

import (
	"time"

	"vaxboard/pkg/contracts/domain"
)

// FilterCriteria selects a slice of the dataset by country and date range.
// Both date bounds are inclusive.
type FilterCriteria struct {
	Countries []string  `json:"countries" validate:"required,min=1,dive,required"`
	From      time.Time `json:"from" validate:"required"`
	To        time.Time `json:"to" validate:"required"`
}

// Filter returns the records matching the criteria, preserving dataset order.
func Filter(records []domain.VaccinationRecord, criteria FilterCriteria) []domain.VaccinationRecord {
	selected := make(map[string]bool, len(criteria.Countries))
	for _, country := range criteria.Countries {
		selected[country] = true
	}

	filtered := make([]domain.VaccinationRecord, 0, len(records))
	for _, record := range records {
		if !selected[record.Country] {
			continue
		}
		if record.Date.Before(criteria.From) || record.Date.After(criteria.To) {
			continue
		}
		filtered = append(filtered, record)
	}

	return filtered
}
