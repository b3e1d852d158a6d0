package availability

import (
	"context"

	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/queries"
	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	PropertyID string         `validate:"required"`
	CheckIn    daterange.Date `validate:"required"`
	CheckOut   daterange.Date `validate:"required"`
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	Snapshots support.SnapshotLoader
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityVerdict, error) {
	stay, err := daterange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.AvailabilityVerdict{}, err
	}
	id, err := property.ParseID(q.PropertyID)
	if err != nil {
		return dto.AvailabilityVerdict{}, err
	}
	snap, err := h.Snapshots.Load(ctx, id)
	if err != nil {
		return dto.AvailabilityVerdict{}, err
	}
	free, err := domainavailability.IsAvailable(snap.Reservations, stay.CheckIn, stay.CheckOut)
	if err != nil {
		return dto.AvailabilityVerdict{}, err
	}
	return dto.AvailabilityVerdict{
		PropertyID: string(id),
		CheckIn:    stay.CheckIn,
		CheckOut:   stay.CheckOut,
		Nights:     stay.Nights(),
		Available:  free,
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityVerdict] = (*CheckAvailabilityHandler)(nil)
