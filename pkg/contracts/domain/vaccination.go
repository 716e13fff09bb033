package domain

import (
	"time"
)

// VaccinationRecord represents one reported row of vaccination figures for a
// country on a calendar date. The four metric fields are optional: a nil
// pointer means the source file had no value for that cell.
type VaccinationRecord struct {
	Country               string    `json:"country" csv:"country" validate:"required"`
	Date                  time.Time `json:"date" csv:"date"`
	TotalVaccinations     *float64  `json:"total_vaccinations,omitempty" csv:"total_vaccinations" validate:"omitempty,min=0"`
	PeopleVaccinated      *float64  `json:"people_vaccinated,omitempty" csv:"people_vaccinated" validate:"omitempty,min=0"`
	PeopleFullyVaccinated *float64  `json:"people_fully_vaccinated,omitempty" csv:"people_fully_vaccinated" validate:"omitempty,min=0"`
	DailyVaccinations     *float64  `json:"daily_vaccinations,omitempty" csv:"daily_vaccinations" validate:"omitempty,min=0"`
}

// MetricColumn identifies one of the four numeric columns of a record.
type MetricColumn string

const (
	ColumnTotalVaccinations     MetricColumn = "total_vaccinations"
	ColumnPeopleVaccinated      MetricColumn = "people_vaccinated"
	ColumnPeopleFullyVaccinated MetricColumn = "people_fully_vaccinated"
	ColumnDailyVaccinations     MetricColumn = "daily_vaccinations"
)

// MetricColumns lists the four numeric columns in their canonical order.
var MetricColumns = []MetricColumn{
	ColumnTotalVaccinations,
	ColumnPeopleVaccinated,
	ColumnPeopleFullyVaccinated,
	ColumnDailyVaccinations,
}

// Metric returns the value of the named column, or nil when it is missing
// or the name is unknown.
func (r *VaccinationRecord) Metric(col MetricColumn) *float64 {
	switch col {
	case ColumnTotalVaccinations:
		return r.TotalVaccinations
	case ColumnPeopleVaccinated:
		return r.PeopleVaccinated
	case ColumnPeopleFullyVaccinated:
		return r.PeopleFullyVaccinated
	case ColumnDailyVaccinations:
		return r.DailyVaccinations
	}
	return nil
}

// Complete reports whether all four metric columns are present.
func (r *VaccinationRecord) Complete() bool {
	return r.TotalVaccinations != nil &&
		r.PeopleVaccinated != nil &&
		r.PeopleFullyVaccinated != nil &&
		r.DailyVaccinations != nil
}

// Dataset is the full ordered collection of vaccination records loaded from
// the source file. It is immutable after construction and safe to share
// across requests.
type Dataset struct {
	Records   []VaccinationRecord `json:"records"`
	Countries []string            `json:"countries"` // dataset-native (first-seen) order
	MinDate   time.Time           `json:"min_date"`
	MaxDate   time.Time           `json:"max_date"`
	LoadedAt  time.Time           `json:"loaded_at"`
	Source    string              `json:"source"`
}

// NewDataset builds a Dataset from parsed records, deriving the country list
// in first-seen order and the date bounds.
func NewDataset(source string, records []VaccinationRecord) *Dataset {
	ds := &Dataset{
		Records:  records,
		LoadedAt: time.Now(),
		Source:   source,
	}

	seen := make(map[string]bool, 64)
	for i := range records {
		r := &records[i]
		if !seen[r.Country] {
			seen[r.Country] = true
			ds.Countries = append(ds.Countries, r.Country)
		}
		if ds.MinDate.IsZero() || r.Date.Before(ds.MinDate) {
			ds.MinDate = r.Date
		}
		if ds.MaxDate.IsZero() || r.Date.After(ds.MaxDate) {
			ds.MaxDate = r.Date
		}
	}
	return ds
}

// DefaultCountries returns the first n countries in dataset order, used
// as the pre-selected country filter.
func (ds *Dataset) DefaultCountries(n int) []string {
	if n > len(ds.Countries) {
		n = len(ds.Countries)
	}
	out := make([]string, n)
	copy(out, ds.Countries[:n])
	return out
}
