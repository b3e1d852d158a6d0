package daterange

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open stay [CheckIn, CheckOut): the checkout day is free.
type DateRange struct {
	CheckIn  Date `json:"check_in"`
	CheckOut Date `json:"check_out"`
}

func New(checkIn, checkOut Date) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return fmt.Errorf("%w: %s..%s", ErrInvalidRange, dr.CheckIn, dr.CheckOut)
	}
	return nil
}

func (dr DateRange) Nights() int {
	return dr.CheckIn.DaysUntil(dr.CheckOut)
}

// Overlaps uses the strict half-open test, so touching ranges do not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && dr.CheckOut.After(other.CheckIn)
}

// Days lists every occupied day, checkout excluded.
func (dr DateRange) Days() []Date {
	n := dr.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]Date, 0, n)
	for d := dr.CheckIn; d.Before(dr.CheckOut); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) String() string {
	return dr.CheckIn.String() + ".." + dr.CheckOut.String()
}
