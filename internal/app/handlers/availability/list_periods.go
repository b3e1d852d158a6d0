package availability

import (
	"context"
	"errors"
	"fmt"

	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/queries"
	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

const (
	listPeriodsKey = "availability.periods"

	DefaultMaxWindowDays = 731
)

var ErrWindowTooLarge = errors.New("availability: requested window is too large")

type ListPeriodsQuery struct {
	PropertyID string         `validate:"required"`
	From       daterange.Date `validate:"required"`
	To         daterange.Date `validate:"required"`
}

func (q ListPeriodsQuery) Key() string { return listPeriodsKey }

type ListPeriodsHandler struct {
	Snapshots     support.SnapshotLoader
	MaxWindowDays int
}

func (h *ListPeriodsHandler) Handle(ctx context.Context, q ListPeriodsQuery) (dto.AvailabilityPeriods, error) {
	var zero dto.AvailabilityPeriods
	if q.To.Before(q.From) {
		return zero, fmt.Errorf("%w: window %s..%s", domainavailability.ErrInvalidDateRange, q.From, q.To)
	}
	if days := q.From.DaysUntil(q.To) + 1; days > h.maxWindow() {
		return zero, fmt.Errorf("%w: %d days, at most %d", ErrWindowTooLarge, days, h.maxWindow())
	}
	id, err := property.ParseID(q.PropertyID)
	if err != nil {
		return zero, err
	}
	snap, err := h.Snapshots.Load(ctx, id)
	if err != nil {
		return zero, err
	}
	free, err := domainavailability.AvailablePeriods(snap.Reservations, q.From, q.To)
	if err != nil {
		return zero, err
	}
	busy, err := domainavailability.UnavailablePeriods(snap.Reservations, q.From, q.To)
	if err != nil {
		return zero, err
	}
	return dto.AvailabilityPeriods{
		PropertyID:  string(id),
		From:        q.From,
		To:          q.To,
		Available:   dto.MapPeriods(free),
		Unavailable: dto.MapPeriods(busy),
	}, nil
}

func (h *ListPeriodsHandler) maxWindow() int {
	if h.MaxWindowDays <= 0 {
		return DefaultMaxWindowDays
	}
	return h.MaxWindowDays
}

var _ queries.Handler[ListPeriodsQuery, dto.AvailabilityPeriods] = (*ListPeriodsHandler)(nil)
