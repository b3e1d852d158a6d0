package memory

import (
	"context"

	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/property"
)

type calendarRepository struct {
	unit *Unit
}

// Calendar returns a detached copy; a property without reservations gets an
// empty calendar.
func (r calendarRepository) Calendar(ctx context.Context, id property.ID) (*domainavailability.Calendar, error) {
	u := r.unit
	u.mu.Lock()
	staged, ok := u.calendars[id]
	u.mu.Unlock()
	if !ok {
		staged, ok = u.store.calendar(id)
	}
	cal := domainavailability.NewCalendar(id)
	if ok {
		cal.Reservations = cloneIntervals(staged.reservations)
		cal.Version = staged.version
	}
	return cal, nil
}

func (r calendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	u := r.unit
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.checkWritable(); err != nil {
		return err
	}
	calendar.Version++
	u.calendars[calendar.PropertyID] = calendarState{
		reservations: cloneIntervals(calendar.Reservations),
		version:      calendar.Version,
	}
	return nil
}
