package worker

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/jmverlaan/climogram/pkg/model"
)

func TestSequencerStampsAreMonotonic(t *testing.T) {
	s := newSequencer()

	a := s.stamp(model.CategoryTemperature)
	if a.local != 1 || a.global != 1 {
		t.Fatalf("first stamp = %+v, want local=1 global=1", a)
	}
	b := s.stamp(model.CategoryTemperature)
	if b.local != 2 || b.global != 2 {
		t.Fatalf("second stamp = %+v, want local=2 global=2", b)
	}
	// A different category gets its own local counter but shares the
	// global one.
	c := s.stamp(model.CategoryPrecipitation)
	if c.local != 1 || c.global != 3 {
		t.Fatalf("cross-category stamp = %+v, want local=1 global=3", c)
	}
}

func TestSequencerCurrency(t *testing.T) {
	s := newSequencer()

	a := s.stamp(model.CategoryTemperature)
	if !s.current(model.CategoryTemperature, a) {
		t.Fatal("latest stamp should be current")
	}

	b := s.stamp(model.CategoryTemperature)
	if s.current(model.CategoryTemperature, a) {
		t.Error("superseded stamp should not be current")
	}
	if !s.current(model.CategoryTemperature, b) {
		t.Error("latest stamp should be current")
	}

	// A request for another category advances the global counter and
	// makes b stale too.
	s.stamp(model.CategoryPrecipitation)
	if s.current(model.CategoryTemperature, b) {
		t.Error("stamp should go stale when the global counter moves on")
	}
}

func TestSequencerReset(t *testing.T) {
	s := newSequencer()
	s.stamp(model.CategoryTemperature)
	s.stamp(model.CategoryTemperature)
	s.stamp(model.CategoryPrecipitation)

	s.reset()

	// Every category restarts at local == 1.
	for _, cat := range model.Categories() {
		st := s.stamp(cat)
		if st.local != 1 {
			t.Errorf("after reset, %s stamp local = %d, want 1", cat, st.local)
		}
	}
}

func TestSequencerProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := newSequencer()
		cats := model.Categories()

		var lastCat model.Category
		var last stamp
		haveLast := false

		ops := rapid.IntRange(1, 40).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Float64Range(0, 1).Draw(t, "p") < 0.15 {
				s.reset()
				haveLast = false
				continue
			}
			cat := cats[rapid.IntRange(0, len(cats)-1).Draw(t, "cat")]
			st := s.stamp(cat)

			// The newest stamp is always current.
			if !s.current(cat, st) {
				t.Fatalf("fresh stamp %+v not current", st)
			}
			// Any previously issued stamp is no longer current.
			if haveLast && s.current(lastCat, last) {
				t.Fatalf("stale stamp %+v for %s still current", last, lastCat)
			}
			lastCat, last, haveLast = cat, st, true
		}
	})
}
