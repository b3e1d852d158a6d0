package dto

import (
	"rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/shared/daterange"
)

type AvailabilityVerdict struct {
	PropertyID string         `json:"property_id"`
	CheckIn    daterange.Date `json:"check_in"`
	CheckOut   daterange.Date `json:"check_out"`
	Nights     int            `json:"nights"`
	Available  bool           `json:"available"`
}

type Period struct {
	Start daterange.Date `json:"start"`
	End   daterange.Date `json:"end"`
	Days  int            `json:"days"`
}

type AvailabilityPeriods struct {
	PropertyID  string         `json:"property_id"`
	From        daterange.Date `json:"from"`
	To          daterange.Date `json:"to"`
	Available   []Period       `json:"available"`
	Unavailable []Period       `json:"unavailable"`
}

type Reservation struct {
	PropertyID string         `json:"property_id"`
	Reference  string         `json:"reference"`
	CheckIn    daterange.Date `json:"check_in"`
	CheckOut   daterange.Date `json:"check_out"`
	Nights     int            `json:"nights"`
}

func MapPeriods(in []availability.Period) []Period {
	out := make([]Period, 0, len(in))
	for _, p := range in {
		out = append(out, Period{Start: p.Start, End: p.End, Days: p.Days()})
	}
	return out
}
