package availability

import (
	"fmt"
	"slices"

	"rentcalc/internal/domain/shared/daterange"
)

// ErrInvalidDateRange is returned for a candidate stay whose checkout is not
// after its check-in, or a listing window that ends before it starts.
var ErrInvalidDateRange = daterange.ErrInvalidRange

// IsAvailable reports whether [checkIn, checkOut) is free of every reserved interval.
func IsAvailable(reserved []ReservedInterval, checkIn, checkOut daterange.Date) (bool, error) {
	candidate, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return false, err
	}
	for _, r := range reserved {
		if r.Range().Overlaps(candidate) {
			return false, nil
		}
	}
	return true, nil
}

// UnavailablePeriods lists the blocked days of [rangeStart, rangeEnd], one period per
// reservation in start order. A reservation's checkout day is not blocked.
func UnavailablePeriods(reserved []ReservedInterval, rangeStart, rangeEnd daterange.Date) ([]Period, error) {
	relevant, err := within(reserved, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	out := make([]Period, 0, len(relevant))
	for _, r := range relevant {
		out = append(out, Period{
			Start: daterange.Max(r.Start, rangeStart),
			End:   daterange.Min(r.End.AddDays(-1), rangeEnd),
		})
	}
	return out, nil
}

// AvailablePeriods lists the free gaps of [rangeStart, rangeEnd]: before the first
// reservation, between consecutive ones and after the last one.
func AvailablePeriods(reserved []ReservedInterval, rangeStart, rangeEnd daterange.Date) ([]Period, error) {
	relevant, err := within(reserved, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	var out []Period
	cursor := rangeStart
	for _, r := range relevant {
		if cursor.Before(r.Start) {
			out = append(out, Period{Start: cursor, End: r.Start.AddDays(-1)})
		}
		cursor = daterange.Max(cursor, r.End)
	}
	if !cursor.After(rangeEnd) {
		out = append(out, Period{Start: cursor, End: rangeEnd})
	}
	return out, nil
}

// within keeps the reservations occupying at least one day of [start, end] and
// stably sorts them by start date.
func within(reserved []ReservedInterval, start, end daterange.Date) ([]ReservedInterval, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: window bounds required", ErrInvalidDateRange)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: window %s..%s", ErrInvalidDateRange, start, end)
	}
	out := make([]ReservedInterval, 0, len(reserved))
	for _, r := range reserved {
		if r.empty() {
			continue
		}
		if r.Start.After(end) || !r.End.After(start) {
			continue
		}
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b ReservedInterval) int {
		return a.Start.Compare(b.Start)
	})
	return out, nil
}
