package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestRecordMetric(t *testing.T) {
	record := VaccinationRecord{
		TotalVaccinations: fp(100),
		DailyVaccinations: fp(5),
	}

	assert.Equal(t, 100.0, *record.Metric(ColumnTotalVaccinations))
	assert.Equal(t, 5.0, *record.Metric(ColumnDailyVaccinations))
	assert.Nil(t, record.Metric(ColumnPeopleVaccinated))
	assert.Nil(t, record.Metric(MetricColumn("bogus")))
}

func TestRecordComplete(t *testing.T) {
	record := VaccinationRecord{
		TotalVaccinations:     fp(100),
		PeopleVaccinated:      fp(60),
		PeopleFullyVaccinated: fp(10),
		DailyVaccinations:     fp(5),
	}
	assert.True(t, record.Complete())

	record.PeopleVaccinated = nil
	assert.False(t, record.Complete())
}

func TestDefaultCountries(t *testing.T) {
	ds := NewDataset("memory", []VaccinationRecord{
		{Country: "Albania", Date: time.Now()},
		{Country: "Belgium", Date: time.Now()},
		{Country: "Chile", Date: time.Now()},
	})

	assert.Equal(t, []string{"Albania", "Belgium"}, ds.DefaultCountries(2))
	// Asking for more than available clamps to the full list.
	assert.Equal(t, []string{"Albania", "Belgium", "Chile"}, ds.DefaultCountries(10))
}
