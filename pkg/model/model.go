// Package model defines the core data types shared across climogram:
// the closed set of series categories, raw and stored records, year
// ranges and aggregated chart points.
package model

import (
	"strconv"
	"strings"
)

// Category identifies one named time-series collection. The set is
// closed and known at compile time; each category maps to its own
// table in the local store and its own seed file on the remote source.
type Category string

const (
	CategoryTemperature   Category = "temperature"
	CategoryPrecipitation Category = "precipitation"
)

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{CategoryTemperature, CategoryPrecipitation}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTemperature, CategoryPrecipitation:
		return true
	}
	return false
}

func (c Category) String() string { return string(c) }

// Title returns the category name capitalized for display.
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RawRecord is one record as produced by the remote seed source.
// T is a calendar date ("YYYY-MM-DD"); V is the measured value.
type RawRecord struct {
	T string  `json:"t"`
	V float64 `json:"v"`
}

// StoredRecord is the persisted unit, keyed uniquely by Date within its
// category's table. Value is always finite; records with a non-finite
// value are dropped at write time.
type StoredRecord struct {
	Date  string
	Value float64
}

// YearRange is an inclusive pair of year bounds.
type YearRange struct {
	Start int
	End   int
}

// Years returns every year in [Start, End], ascending.
func (r YearRange) Years() []int {
	if r.End < r.Start {
		return nil
	}
	years := make([]int, 0, r.End-r.Start+1)
	for y := r.Start; y <= r.End; y++ {
		years = append(years, y)
	}
	return years
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// AggregatedPoint is one chart point: Date holds the year as a string,
// Value the mean of all stored values for that year, rounded to two
// decimal places.
type AggregatedPoint struct {
	Date  string
	Value float64
}

// ParseYear extracts the leading integer token of a date string
// ("2020-07-04" -> 2020). The second return is false when the string
// has no leading digits.
func ParseYear(date string) (int, bool) {
	i := 0
	for i < len(date) && date[i] >= '0' && date[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	year, err := strconv.Atoi(date[:i])
	if err != nil {
		return 0, false
	}
	return year, true
}
