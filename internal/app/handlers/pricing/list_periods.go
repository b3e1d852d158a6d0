package pricing

import (
	"context"

	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/queries"
	"rentcalc/internal/domain/property"
)

const listPricingPeriodsKey = "pricing.periods.list"

type ListPricingPeriodsQuery struct {
	PropertyID string `validate:"required"`
}

func (q ListPricingPeriodsQuery) Key() string { return listPricingPeriodsKey }

// ListPricingPeriodsHandler returns periods in the order the calculator
// consults them.
type ListPricingPeriodsHandler struct {
	Snapshots support.SnapshotLoader
}

func (h *ListPricingPeriodsHandler) Handle(ctx context.Context, q ListPricingPeriodsQuery) ([]dto.PricingPeriod, error) {
	id, err := property.ParseID(q.PropertyID)
	if err != nil {
		return nil, err
	}
	snap, err := h.Snapshots.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.MapPricingPeriods(snap.PricingPeriods), nil
}

var _ queries.Handler[ListPricingPeriodsQuery, []dto.PricingPeriod] = (*ListPricingPeriodsHandler)(nil)
