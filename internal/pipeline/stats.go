package pipeline

import (
	"math"
	"sort"

	"vaxboard/pkg/contracts/domain"
)

// ColumnStats mirrors the classic describe() table for one metric
// column: count plus mean, sample standard deviation, min, quartiles,
// and max, each rounded to two decimals.
type ColumnStats struct {
	Column domain.MetricColumn `json:"column"`
	Count  int                 `json:"count"`
	Mean   float64             `json:"mean"`
	Std    *float64            `json:"std"`
	Min    float64             `json:"min"`
	Q25    float64             `json:"q25"`
	Median float64             `json:"median"`
	Q75    float64             `json:"q75"`
	Max    float64             `json:"max"`
}

// Describe computes per-column statistics over the records. Columns with
// no values present are omitted. Std is nil for single-value columns,
// where a sample deviation is undefined.
func Describe(records []domain.VaccinationRecord) []ColumnStats {
	stats := make([]ColumnStats, 0, len(domain.MetricColumns))
	for _, column := range domain.MetricColumns {
		values := collect(records, column)
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)

		cs := ColumnStats{
			Column: column,
			Count:  len(values),
			Mean:   round2(mean(values)),
			Min:    round2(values[0]),
			Q25:    round2(quantile(values, 0.25)),
			Median: round2(quantile(values, 0.50)),
			Q75:    round2(quantile(values, 0.75)),
			Max:    round2(values[len(values)-1]),
		}
		if len(values) > 1 {
			std := round2(sampleStd(values))
			cs.Std = &std
		}
		stats = append(stats, cs)
	}
	return stats
}

// MetricCounters are the whole-number mean, median, min and max of one
// metric column, shown as headline counters beside the table.
type MetricCounters struct {
	Mean   int64 `json:"mean"`
	Median int64 `json:"median"`
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
}

// Counters computes whole-number counters for one column, truncating
// toward zero. The second return is false when the column has no values.
func Counters(records []domain.VaccinationRecord, column domain.MetricColumn) (MetricCounters, bool) {
	values := collect(records, column)
	if len(values) == 0 {
		return MetricCounters{}, false
	}
	sort.Float64s(values)
	return MetricCounters{
		Mean:   int64(mean(values)),
		Median: int64(quantile(values, 0.50)),
		Min:    int64(values[0]),
		Max:    int64(values[len(values)-1]),
	}, true
}

func collect(records []domain.VaccinationRecord, column domain.MetricColumn) []float64 {
	values := make([]float64, 0, len(records))
	for _, record := range records {
		if value := record.Metric(column); value != nil {
			values = append(values, *value)
		}
	}
	return values
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd uses n-1 in the denominator.
func sampleStd(values []float64) float64 {
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// quantile interpolates linearly between the two nearest order
// statistics. The input must be sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
