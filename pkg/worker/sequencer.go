package worker

import (
	"sync"

	"github.com/jmverlaan/climogram/pkg/model"
)

// stamp is the pair of ordinals assigned to a request on arrival. It is
// the sole input to the staleness decision: a result is surfaced only
// if its stamp still matches the live counters when it is ready.
type stamp struct {
	local  uint64 // per-category ordinal; 1 marks a first request
	global uint64 // ordinal across all categories
}

// sequencer owns the two ordinal counters. It lives inside the
// Coordinator and is never shared outside it; the mutex only covers the
// handler goroutines the coordinator itself spawns.
type sequencer struct {
	mu          sync.Mutex
	perCategory map[model.Category]uint64
	global      uint64
}

func newSequencer() *sequencer {
	return &sequencer{perCategory: make(map[model.Category]uint64)}
}

// stamp increments both counters and returns the ordinals for a newly
// arrived request.
func (s *sequencer) stamp(cat model.Category) stamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perCategory[cat]++
	s.global++
	return stamp{local: s.perCategory[cat], global: s.global}
}

// current reports whether st is still the most recent request: its
// local ordinal must match the category counter and its global ordinal
// the global counter. Anything else has been superseded.
func (s *sequencer) current(cat model.Category, st stamp) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return st.local == s.perCategory[cat] && st.global == s.global
}

// reset zeroes every counter. Called on any command failure so the next
// request for any category becomes a fresh first request.
func (s *sequencer) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perCategory = make(map[model.Category]uint64)
	s.global = 0
}
