package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaxboard/pkg/contracts/domain"
)

func fp(v float64) *float64 { return &v }

func day(d int) time.Time {
	return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC)
}

func rec(country string, date time.Time, total, people, fully, daily *float64) domain.VaccinationRecord {
	return domain.VaccinationRecord{
		Country:               country,
		Date:                  date,
		TotalVaccinations:     total,
		PeopleVaccinated:      people,
		PeopleFullyVaccinated: fully,
		DailyVaccinations:     daily,
	}
}

func TestFilter_CountryAndRange(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), fp(100), nil, nil, fp(10)),
		rec("Albania", day(2), fp(150), fp(90), fp(25), nil),
		rec("Belgium", day(1), fp(200), fp(120), fp(40), fp(20)),
	}

	got := Filter(records, FilterCriteria{
		Countries: []string{"Albania"},
		From:      day(1),
		To:        day(2),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Albania", got[0].Country)
	assert.Equal(t, "Albania", got[1].Country)
}

func TestFilter_BoundsInclusive(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), nil, nil, nil, fp(1)),
		rec("Albania", day(2), nil, nil, nil, fp(2)),
		rec("Albania", day(3), nil, nil, nil, fp(3)),
		rec("Albania", day(4), nil, nil, nil, fp(4)),
	}

	got := Filter(records, FilterCriteria{
		Countries: []string{"Albania"},
		From:      day(2),
		To:        day(3),
	})

	require.Len(t, got, 2)
	assert.True(t, got[0].Date.Equal(day(2)))
	assert.True(t, got[1].Date.Equal(day(3)))
}

func TestLatestPerCountry(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Belgium", day(5), fp(500), nil, nil, nil),
		rec("Albania", day(2), fp(150), fp(90), fp(25), nil),
		rec("Albania", day(1), fp(100), nil, nil, fp(10)),
		rec("Belgium", day(3), fp(300), nil, nil, nil),
	}

	got := LatestPerCountry(records)

	require.Len(t, got, 2)
	// Sorted by country, each holding its newest row.
	assert.Equal(t, "Albania", got[0].Country)
	assert.True(t, got[0].Date.Equal(day(2)))
	assert.Equal(t, 150.0, *got[0].TotalVaccinations)
	assert.Equal(t, "Belgium", got[1].Country)
	assert.True(t, got[1].Date.Equal(day(5)))
}

func TestLatestPerCountry_TieTakesLaterRow(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(2), fp(140), nil, nil, nil),
		rec("Albania", day(2), fp(150), nil, nil, nil),
	}

	got := LatestPerCountry(records)

	require.Len(t, got, 1)
	assert.Equal(t, 150.0, *got[0].TotalVaccinations)
}

func TestCleanNumeric(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), fp(100), fp(60), fp(10), fp(5)),
		rec("Albania", day(2), fp(150), fp(90), fp(25), nil),
		rec("Belgium", day(1), fp(200), nil, fp(40), fp(20)),
	}

	got := CleanNumeric(records)

	require.Len(t, got, 1)
	assert.True(t, got[0].Date.Equal(day(1)))
	assert.Equal(t, "Albania", got[0].Country)
}

func TestSumMetric_SkipsMissing(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), fp(100), nil, nil, nil),
		rec("Belgium", day(1), fp(200), fp(120), nil, nil),
		rec("Chile", day(1), nil, fp(80), nil, nil),
	}

	sum, count := SumMetric(records, domain.ColumnTotalVaccinations)
	assert.Equal(t, 300.0, sum)
	assert.Equal(t, 2, count)

	sum, count = SumMetric(records, domain.ColumnPeopleVaccinated)
	assert.Equal(t, 200.0, sum)
	assert.Equal(t, 2, count)

	sum, count = SumMetric(records, domain.ColumnDailyVaccinations)
	assert.Equal(t, 0.0, sum)
	assert.Equal(t, 0, count)
}

func TestDescribe(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), fp(10), fp(1), fp(1), fp(1)),
		rec("Albania", day(2), fp(20), fp(2), fp(2), fp(2)),
		rec("Albania", day(3), fp(30), fp(3), fp(3), fp(3)),
		rec("Albania", day(4), fp(40), fp(4), fp(4), fp(4)),
	}

	stats := Describe(records)
	require.Len(t, stats, 4)

	total := stats[0]
	assert.Equal(t, domain.ColumnTotalVaccinations, total.Column)
	assert.Equal(t, 4, total.Count)
	assert.Equal(t, 25.0, total.Mean)
	require.NotNil(t, total.Std)
	// Sample deviation of {10,20,30,40}.
	assert.InDelta(t, 12.91, *total.Std, 0.001)
	assert.Equal(t, 10.0, total.Min)
	// Quartiles interpolate between order statistics.
	assert.Equal(t, 17.5, total.Q25)
	assert.Equal(t, 25.0, total.Median)
	assert.Equal(t, 32.5, total.Q75)
	assert.Equal(t, 40.0, total.Max)
}

func TestDescribe_SingleValueHasNoStd(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), fp(10), nil, nil, nil),
	}

	stats := Describe(records)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Count)
	assert.Nil(t, stats[0].Std)
	assert.Equal(t, 10.0, stats[0].Median)
}

func TestDescribe_OmitsEmptyColumns(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), nil, nil, nil, fp(5)),
	}

	stats := Describe(records)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.ColumnDailyVaccinations, stats[0].Column)
}

func TestCounters(t *testing.T) {
	records := []domain.VaccinationRecord{
		rec("Albania", day(1), nil, nil, nil, fp(10.9)),
		rec("Albania", day(2), nil, nil, nil, fp(25.5)),
		rec("Albania", day(3), nil, nil, nil, fp(40.1)),
	}

	counters, ok := Counters(records, domain.ColumnDailyVaccinations)
	require.True(t, ok)
	// Whole-number counters truncate, matching int() conversion.
	assert.Equal(t, int64(25), counters.Mean)
	assert.Equal(t, int64(25), counters.Median)
	assert.Equal(t, int64(10), counters.Min)
	assert.Equal(t, int64(40), counters.Max)

	_, ok = Counters(records, domain.ColumnTotalVaccinations)
	assert.False(t, ok)
}

func TestPipelineRun(t *testing.T) {
	ds := domain.NewDataset("memory", []domain.VaccinationRecord{
		rec("Albania", day(1), fp(100), nil, nil, fp(10)),
		rec("Albania", day(2), fp(150), fp(90), fp(25), nil),
		rec("Belgium", day(1), fp(200), fp(120), fp(40), fp(20)),
	})

	p := New(nil, nil)
	result, err := p.Run(context.Background(), ds, FilterCriteria{
		Countries: []string{"Albania"},
		From:      day(1),
		To:        day(2),
	})
	require.NoError(t, err)

	assert.Len(t, result.Filtered, 2)
	require.Len(t, result.Latest, 1)
	latest := result.Latest[0]
	assert.Equal(t, 150.0, *latest.TotalVaccinations)
	assert.Equal(t, 90.0, *latest.PeopleVaccinated)
	assert.Equal(t, 25.0, *latest.PeopleFullyVaccinated)

	// Neither Albania row carries all four metrics.
	assert.Empty(t, result.Clean)
}

func TestPipelineRun_Idempotent(t *testing.T) {
	// Rows arrive date-shuffled so the latest-per-country sort has
	// real work to do on each run.
	records := []domain.VaccinationRecord{
		rec("Belgium", day(3), fp(260), fp(150), fp(60), fp(30)),
		rec("Albania", day(1), fp(100), fp(60), fp(10), fp(5)),
		rec("Belgium", day(1), fp(200), fp(120), fp(40), fp(20)),
		rec("Albania", day(2), fp(150), fp(90), fp(25), nil),
	}
	ds := domain.NewDataset("memory", records)
	original := make([]domain.VaccinationRecord, len(ds.Records))
	copy(original, ds.Records)

	p := New(nil, nil)
	criteria := FilterCriteria{
		Countries: []string{"Albania", "Belgium"},
		From:      day(1),
		To:        day(3),
	}

	first, err := p.Run(context.Background(), ds, criteria)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), ds, criteria)
	require.NoError(t, err)

	assert.Equal(t, first.Filtered, second.Filtered)
	assert.Equal(t, first.Latest, second.Latest)
	assert.Equal(t, first.Clean, second.Clean)

	// Runs must not reorder the shared dataset.
	assert.Equal(t, original, ds.Records)
}

func TestPipelineRun_EmptyResult(t *testing.T) {
	ds := domain.NewDataset("memory", []domain.VaccinationRecord{
		rec("Albania", day(1), fp(100), nil, nil, fp(10)),
	})

	p := New(nil, nil)
	_, err := p.Run(context.Background(), ds, FilterCriteria{
		Countries: []string{"Chile"},
		From:      day(1),
		To:        day(5),
	})
	assert.ErrorIs(t, err, ErrEmptyFilterResult)
}
