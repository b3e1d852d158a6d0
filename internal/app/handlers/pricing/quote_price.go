package pricing

import (
	"context"

	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/queries"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

const quotePriceKey = "pricing.quote"

type QuotePriceQuery struct {
	PropertyID string         `validate:"required"`
	CheckIn    daterange.Date `validate:"required"`
	CheckOut   daterange.Date `validate:"required"`
}

func (q QuotePriceQuery) Key() string { return quotePriceKey }

type QuotePriceHandler struct {
	Snapshots  support.SnapshotLoader
	Calculator domainpricing.Calculator
}

func (h *QuotePriceHandler) Handle(ctx context.Context, q QuotePriceQuery) (dto.PriceQuote, error) {
	if _, err := daterange.New(q.CheckIn, q.CheckOut); err != nil {
		return dto.PriceQuote{}, err
	}
	id, err := property.ParseID(q.PropertyID)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	snap, err := h.Snapshots.Load(ctx, id)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	quote, err := h.Calculator.Quote(snap.PricingPeriods, q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.PriceQuote{}, err
	}
	return dto.MapQuote(string(id), quote), nil
}

var _ queries.Handler[QuotePriceQuery, dto.PriceQuote] = (*QuotePriceHandler)(nil)
