package model

import "testing"

func TestParseYear(t *testing.T) {
	tests := []struct {
		date string
		year int
		ok   bool
	}{
		{"2020-07-04", 2020, true},
		{"1999-01-01", 1999, true},
		{"2020", 2020, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"-2020-01-01", 0, false},
	}
	for _, tt := range tests {
		year, ok := ParseYear(tt.date)
		if year != tt.year || ok != tt.ok {
			t.Errorf("ParseYear(%q) = (%d, %v), want (%d, %v)", tt.date, year, ok, tt.year, tt.ok)
		}
	}
}

func TestYearRangeYears(t *testing.T) {
	got := YearRange{Start: 2018, End: 2020}.Years()
	want := []int{2018, 2019, 2020}
	if len(got) != len(want) {
		t.Fatalf("Years() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Years() = %v, want %v", got, want)
		}
	}

	if ys := (YearRange{Start: 2020, End: 2019}).Years(); ys != nil {
		t.Errorf("inverted range should yield nil, got %v", ys)
	}
	if ys := (YearRange{Start: 2020, End: 2020}).Years(); len(ys) != 1 || ys[0] != 2020 {
		t.Errorf("single-year range should yield itself, got %v", ys)
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("category %q should be valid", c)
		}
	}
	if Category("humidity").Valid() {
		t.Error("unknown category should not be valid")
	}
}

func TestCategoryTitle(t *testing.T) {
	if got := CategoryTemperature.Title(); got != "Temperature" {
		t.Errorf("Title() = %q, want %q", got, "Temperature")
	}
}
