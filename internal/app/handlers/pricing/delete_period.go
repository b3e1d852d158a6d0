package pricing

import (
	"context"
	"time"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/outbox"
	"rentcalc/internal/app/uow"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/events"
)

const deletePricingPeriodKey = "pricing.periods.delete"

type DeletePricingPeriodCommand struct {
	PropertyID string `validate:"required"`
	PeriodID   string `validate:"required"`
}

func (c DeletePricingPeriodCommand) Key() string { return deletePricingPeriodKey }

func (c DeletePricingPeriodCommand) PropertyKey() string { return c.PropertyID }

type DeletePricingPeriodHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *DeletePricingPeriodHandler) Handle(ctx context.Context, cmd DeletePricingPeriodCommand) (struct{}, error) {
	propertyID, err := property.ParseID(cmd.PropertyID)
	if err != nil {
		return struct{}{}, err
	}
	periodID := domainpricing.PeriodID(cmd.PeriodID)
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	return struct{}{}, support.RunInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		repo := unit.PricingPeriods()
		current, err := repo.ByID(ctx, periodID)
		if err != nil {
			return err
		}
		if current.PropertyID != propertyID {
			return domainpricing.ErrPeriodNotFound
		}
		if err := repo.Delete(ctx, periodID); err != nil {
			return err
		}
		event := domainpricing.PeriodDeleted{PropertyID: string(propertyID), PeriodID: string(periodID), At: now}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{event})
	})
}

var (
	_ commands.Handler[DeletePricingPeriodCommand, struct{}] = (*DeletePricingPeriodHandler)(nil)
	_ commands.PropertyScoped                                = DeletePricingPeriodCommand{}
)
