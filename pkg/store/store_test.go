package store

import (
	"errors"
	"math"
	"path/filepath"
	"sort"
	"testing"

	"github.com/jmverlaan/climogram/pkg/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "series.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesEmptyCollections(t *testing.T) {
	s := openTestStore(t)
	for _, cat := range model.Categories() {
		empty, err := s.IsEmpty(cat)
		if err != nil {
			t.Fatalf("IsEmpty(%s): %v", cat, err)
		}
		if !empty {
			t.Errorf("fresh store should be empty for %s", cat)
		}
	}
}

func TestPutRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := []model.RawRecord{
		{T: "2020-07-04", V: 23.456},
		{T: "2020-07-05", V: 19.1},
	}
	if err := s.Put(model.CategoryTemperature, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.GetAll(model.CategoryTemperature, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetAll returned %d records, want 2", len(got))
	}
	sort.Slice(got, func(i, j int) bool { return got[i].Date < got[j].Date })
	if got[0].Date != "2020-07-04" || got[0].Value != 23.456 {
		t.Errorf("round trip produced %+v", got[0])
	}

	// Categories are isolated collections.
	empty, err := s.IsEmpty(model.CategoryPrecipitation)
	if err != nil {
		t.Fatalf("IsEmpty: %v", err)
	}
	if !empty {
		t.Error("precipitation table should stay empty")
	}
}

func TestPutSkipsNonFiniteValues(t *testing.T) {
	s := openTestStore(t)

	in := []model.RawRecord{
		{T: "2020-01-01", V: math.NaN()},
		{T: "2020-01-02", V: math.Inf(1)},
		{T: "2020-01-03", V: 4.2},
	}
	if err := s.Put(model.CategoryPrecipitation, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.GetAll(model.CategoryPrecipitation, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2020-01-03" {
		t.Fatalf("non-finite values should be dropped, got %+v", got)
	}
}

func TestPutUpsertsByDate(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(model.CategoryTemperature, []model.RawRecord{{T: "2020-01-01", V: 1}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(model.CategoryTemperature, []model.RawRecord{{T: "2020-01-01", V: 2}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.GetAll(model.CategoryTemperature, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 1 || got[0].Value != 2 {
		t.Fatalf("upsert should keep one record per date, got %+v", got)
	}
}

func TestGetAllIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(model.CategoryTemperature, []model.RawRecord{
		{T: "2019-03-01", V: 7}, {T: "2020-03-01", V: 9},
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	first, err := s.GetAll(model.CategoryTemperature, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	second, err := s.GetAll(model.CategoryTemperature, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeated reads disagree: %d vs %d", len(first), len(second))
	}
	asSet := func(recs []model.StoredRecord) map[string]float64 {
		m := make(map[string]float64, len(recs))
		for _, r := range recs {
			m[r.Date] = r.Value
		}
		return m
	}
	a, b := asSet(first), asSet(second)
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("repeated reads disagree at %s: %v vs %v", k, v, b[k])
		}
	}
}

func TestGetAllRangeFilter(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(model.CategoryTemperature, []model.RawRecord{
		{T: "2018-06-15", V: 1},
		{T: "2019-01-01", V: 2},
		{T: "2019-12-31", V: 3},
		{T: "2020-01-01", V: 4},
		{T: "2021-02-02", V: 5},
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	all, err := s.GetAll(model.CategoryTemperature, nil)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	ranged, err := s.GetAll(model.CategoryTemperature, &model.YearRange{Start: 2019, End: 2020})
	if err != nil {
		t.Fatalf("GetAll with range: %v", err)
	}

	if len(ranged) != 3 {
		t.Fatalf("range filter returned %d records, want 3: %+v", len(ranged), ranged)
	}
	inAll := make(map[string]bool, len(all))
	for _, r := range all {
		inAll[r.Date] = true
	}
	for _, r := range ranged {
		if !inAll[r.Date] {
			t.Errorf("ranged result %s not a subset of full result", r.Date)
		}
		year, ok := model.ParseYear(r.Date)
		if !ok || year < 2019 || year > 2020 {
			t.Errorf("record %s outside requested range", r.Date)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "series.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}

	if _, err := s.IsEmpty(model.CategoryTemperature); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("IsEmpty on closed store: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.GetAll(model.CategoryTemperature, nil); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("GetAll on closed store: got %v, want ErrStoreUnavailable", err)
	}
	if err := s.Put(model.CategoryTemperature, nil); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Put on closed store: got %v, want ErrStoreUnavailable", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Put(model.CategoryTemperature, []model.RawRecord{{T: "2020-01-01", V: 1.5}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	empty, err := s2.IsEmpty(model.CategoryTemperature)
	if err != nil {
		t.Fatalf("IsEmpty: %v", err)
	}
	if empty {
		t.Error("data should survive reopen")
	}
}
