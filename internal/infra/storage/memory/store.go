package memory

import (
	"sort"
	"sync"

	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
)

// Store holds committed state. Units read from it and write staged copies back
// on commit.
type Store struct {
	mu        sync.RWMutex
	writer    sync.Mutex
	calendars map[property.ID]calendarState
	periods   []domainpricing.Period
}

type calendarState struct {
	reservations []domainavailability.ReservedInterval
	version      int64
}

func NewStore() *Store {
	return &Store{calendars: make(map[property.ID]calendarState)}
}

func (s *Store) calendar(id property.ID) (calendarState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.calendars[id]
	if !ok {
		return calendarState{}, false
	}
	return calendarState{reservations: cloneIntervals(st.reservations), version: st.version}, true
}

func (s *Store) periodsSnapshot() []domainpricing.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePeriods(s.periods)
}

func (s *Store) apply(calendars map[property.ID]calendarState, periods []domainpricing.Period, periodsDirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range calendars {
		s.calendars[id] = st
	}
	if periodsDirty {
		s.periods = periods
	}
}

func cloneIntervals(in []domainavailability.ReservedInterval) []domainavailability.ReservedInterval {
	if in == nil {
		return nil
	}
	return append([]domainavailability.ReservedInterval(nil), in...)
}

// clonePeriods copies the slice and the date pointers inside each period.
func clonePeriods(in []domainpricing.Period) []domainpricing.Period {
	out := make([]domainpricing.Period, len(in))
	for i, p := range in {
		out[i] = clonePeriod(p)
	}
	return out
}

func clonePeriod(p domainpricing.Period) domainpricing.Period {
	if p.StartDate != nil {
		d := *p.StartDate
		p.StartDate = &d
	}
	if p.EndDate != nil {
		d := *p.EndDate
		p.EndDate = &d
	}
	return p
}

// sortByCreation orders periods the way the calculator consults them.
func sortByCreation(periods []domainpricing.Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].CreatedAt.Before(periods[j].CreatedAt)
	})
}
