package availability

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/domain/shared/events"
)

var (
	ErrOverlappingRange   = errors.New("availability: range overlaps with an existing reservation")
	ErrReservationMissing = errors.New("availability: reservation not found")
	ErrReferenceRequired  = errors.New("availability: reservation reference is required")
	ErrDuplicateReference = errors.New("availability: reservation reference already used")
)

// Calendar holds the confirmed reservations of one property. Writes go through
// Reserve and Release so availability is re-checked inside the write transaction.
type Calendar struct {
	PropertyID   property.ID
	Reservations []ReservedInterval
	Version      int64
	events.EventRecorder
}

type Repository interface {
	// Calendar returns the property's calendar, creating an empty one when none exists.
	Calendar(ctx context.Context, id property.ID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id property.ID) *Calendar {
	return &Calendar{PropertyID: id}
}

// Intervals returns a copy safe to hand to the pure checker functions.
func (c *Calendar) Intervals() []ReservedInterval {
	return append([]ReservedInterval(nil), c.Reservations...)
}

func (c *Calendar) IsAvailable(r daterange.DateRange) (bool, error) {
	return IsAvailable(c.Reservations, r.CheckIn, r.CheckOut)
}

func (c *Calendar) Reserve(r daterange.DateRange, reference string, now time.Time) error {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return ErrReferenceRequired
	}
	if c.indexOf(reference) >= 0 {
		return ErrDuplicateReference
	}
	free, err := c.IsAvailable(r)
	if err != nil {
		return err
	}
	if !free {
		c.Record(OverbookingPrevented{PropertyID: string(c.PropertyID), Reference: reference, Range: r, At: now.UTC()})
		return ErrOverlappingRange
	}
	c.Reservations = append(c.Reservations, ReservedInterval{Start: r.CheckIn, End: r.CheckOut, Reference: reference})
	c.Record(ReservationConfirmed{PropertyID: string(c.PropertyID), Reference: reference, Range: r, At: now.UTC()})
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx := c.indexOf(strings.TrimSpace(reference))
	if idx < 0 {
		return ErrReservationMissing
	}
	removed := c.Reservations[idx]
	c.Reservations = append(c.Reservations[:idx], c.Reservations[idx+1:]...)
	c.Record(ReservationReleased{PropertyID: string(c.PropertyID), Reference: removed.Reference, Range: removed.Range(), At: now.UTC()})
	return nil
}

func (c *Calendar) indexOf(reference string) int {
	if reference == "" {
		return -1
	}
	for i, r := range c.Reservations {
		if r.Reference == reference {
			return i
		}
	}
	return -1
}
