// Package aggregate reduces daily series records to one mean value per
// calendar year.
package aggregate

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/jmverlaan/climogram/pkg/model"
)

// ByYear groups records by the leading integer year of their date,
// computes the arithmetic mean per year and rounds it to two decimal
// places. Points come back ascending by year. Records whose date has no
// leading year token are skipped; empty input yields empty output.
func ByYear(records []model.StoredRecord) []model.AggregatedPoint {
	buckets := make(map[int][]float64)
	for _, rec := range records {
		year, ok := model.ParseYear(rec.Date)
		if !ok {
			continue
		}
		buckets[year] = append(buckets[year], rec.Value)
	}

	years := make([]int, 0, len(buckets))
	for year := range buckets {
		years = append(years, year)
	}
	sort.Ints(years)

	points := make([]model.AggregatedPoint, 0, len(years))
	for _, year := range years {
		points = append(points, model.AggregatedPoint{
			Date:  strconv.Itoa(year),
			Value: round2(stat.Mean(buckets[year], nil)),
		})
	}
	return points
}

// YearSpan returns the min/max parsed year across the records. The
// second return is false when no record carries a usable year.
func YearSpan(records []model.StoredRecord) (model.YearRange, bool) {
	var span model.YearRange
	found := false
	for _, rec := range records {
		year, ok := model.ParseYear(rec.Date)
		if !ok {
			continue
		}
		if !found {
			span = model.YearRange{Start: year, End: year}
			found = true
			continue
		}
		if year < span.Start {
			span.Start = year
		}
		if year > span.End {
			span.End = year
		}
	}
	return span, found
}

// round2 rounds half-up on the scaled integer, matching chart labels.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
