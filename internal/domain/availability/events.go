package availability

import (
	"time"

	"rentcalc/internal/domain/shared/daterange"
)

type ReservationConfirmed struct {
	PropertyID string              `json:"property_id"`
	Reference  string              `json:"reference"`
	Range      daterange.DateRange `json:"range"`
	At         time.Time           `json:"at"`
}

func (e ReservationConfirmed) EventName() string     { return "calendar.reservation_confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return e.PropertyID }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationReleased struct {
	PropertyID string              `json:"property_id"`
	Reference  string              `json:"reference"`
	Range      daterange.DateRange `json:"range"`
	At         time.Time           `json:"at"`
}

func (e ReservationReleased) EventName() string     { return "calendar.reservation_released" }
func (e ReservationReleased) AggregateID() string   { return e.PropertyID }
func (e ReservationReleased) OccurredAt() time.Time { return e.At }

// OverbookingPrevented is recorded when a reservation is refused because the
// requested range overlaps a confirmed stay.
type OverbookingPrevented struct {
	PropertyID string              `json:"property_id"`
	Reference  string              `json:"reference"`
	Range      daterange.DateRange `json:"range"`
	At         time.Time           `json:"at"`
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.PropertyID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
