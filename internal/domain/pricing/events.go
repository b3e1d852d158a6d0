package pricing

import "time"

type PeriodSaved struct {
	PropertyID string    `json:"property_id"`
	PeriodID   string    `json:"period_id"`
	Created    bool      `json:"created"`
	At         time.Time `json:"at"`
}

func (e PeriodSaved) EventName() string     { return "pricing.period_saved" }
func (e PeriodSaved) AggregateID() string   { return e.PropertyID }
func (e PeriodSaved) OccurredAt() time.Time { return e.At }

type PeriodDeleted struct {
	PropertyID string    `json:"property_id"`
	PeriodID   string    `json:"period_id"`
	At         time.Time `json:"at"`
}

func (e PeriodDeleted) EventName() string     { return "pricing.period_deleted" }
func (e PeriodDeleted) AggregateID() string   { return e.PropertyID }
func (e PeriodDeleted) OccurredAt() time.Time { return e.At }
