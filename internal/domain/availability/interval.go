package availability

import (
	"rentcalc/internal/domain/shared/daterange"
)

// ReservedInterval is a confirmed stay occupying [Start, End). The End day is
// free for a new check-in.
type ReservedInterval struct {
	Start     daterange.Date `json:"start_date"`
	End       daterange.Date `json:"end_date"`
	Reference string         `json:"reference,omitempty"`
}

func (r ReservedInterval) Range() daterange.DateRange {
	return daterange.DateRange{CheckIn: r.Start, CheckOut: r.End}
}

func (r ReservedInterval) empty() bool {
	return !r.End.After(r.Start)
}

// Period is an inclusive span of days [Start, End].
type Period struct {
	Start daterange.Date `json:"start"`
	End   daterange.Date `json:"end"`
}

func (p Period) Days() int {
	return p.Start.DaysUntil(p.End) + 1
}
