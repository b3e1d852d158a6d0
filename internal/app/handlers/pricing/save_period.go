package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/outbox"
	"rentcalc/internal/app/uow"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/domain/shared/events"
	"rentcalc/internal/domain/shared/money"
)

const savePricingPeriodKey = "pricing.periods.save"

// SavePricingPeriodCommand creates a period when PeriodID is empty or unknown
// and replaces it otherwise.
type SavePricingPeriodCommand struct {
	PropertyID string `validate:"required"`
	PeriodID   string `validate:"omitempty,max=64"`

	NightlyRate decimal.Decimal
	Currency    string `validate:"omitempty,len=3"`

	WeeklyDiscountPercent decimal.Decimal
	WeeklyDiscountActive  bool
	MinDaysForWeekly      int `validate:"gte=0"`

	MonthlyDiscountPercent decimal.Decimal
	MonthlyDiscountActive  bool
	MinDaysForMonthly      int `validate:"gte=0"`

	WeekendPremiumPercent decimal.Decimal
	WeekendPremiumActive  bool

	StartDate *daterange.Date
	EndDate   *daterange.Date
}

func (c SavePricingPeriodCommand) Key() string { return savePricingPeriodKey }

func (c SavePricingPeriodCommand) PropertyKey() string { return c.PropertyID }

type SavePricingPeriodHandler struct {
	UoWFactory  uow.UoWFactory
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	Now         func() time.Time
	IDGenerator func() string
}

func (h *SavePricingPeriodHandler) Handle(ctx context.Context, cmd SavePricingPeriodCommand) (*dto.PricingPeriod, error) {
	propertyID, err := property.ParseID(cmd.PropertyID)
	if err != nil {
		return nil, err
	}
	currency, err := money.New(decimal.Zero, cmd.Currency)
	if err != nil {
		return nil, err
	}
	now := h.now()

	candidate := domainpricing.Period{
		ID:                     domainpricing.PeriodID(strings.TrimSpace(cmd.PeriodID)),
		PropertyID:             propertyID,
		NightlyRate:            cmd.NightlyRate,
		Currency:               currency.Currency,
		WeeklyDiscountPercent:  cmd.WeeklyDiscountPercent,
		WeeklyDiscountActive:   cmd.WeeklyDiscountActive,
		MinDaysForWeekly:       cmd.MinDaysForWeekly,
		MonthlyDiscountPercent: cmd.MonthlyDiscountPercent,
		MonthlyDiscountActive:  cmd.MonthlyDiscountActive,
		MinDaysForMonthly:      cmd.MinDaysForMonthly,
		WeekendPremiumPercent:  cmd.WeekendPremiumPercent,
		WeekendPremiumActive:   cmd.WeekendPremiumActive,
		StartDate:              cmd.StartDate,
		EndDate:                cmd.EndDate,
		CreatedAt:              now,
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	created := true
	err = support.RunInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		repo := unit.PricingPeriods()
		if candidate.ID == "" {
			candidate.ID = domainpricing.PeriodID(h.newID())
		} else {
			current, err := repo.ByID(ctx, candidate.ID)
			switch {
			case errors.Is(err, domainpricing.ErrPeriodNotFound):
			case err != nil:
				return err
			case current.PropertyID != propertyID:
				// period ids are global; another property's id is treated as unknown
				return domainpricing.ErrPeriodNotFound
			default:
				created = false
				candidate.CreatedAt = current.CreatedAt
			}
		}

		existing, err := repo.ListByProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		if err := domainpricing.EnsureNoOverlap(existing, candidate); err != nil {
			return err
		}
		if err := repo.Save(ctx, &candidate); err != nil {
			return err
		}
		event := domainpricing.PeriodSaved{
			PropertyID: string(propertyID),
			PeriodID:   string(candidate.ID),
			Created:    created,
			At:         now,
		}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{event})
	})
	if err != nil {
		return nil, err
	}
	out := dto.MapPricingPeriod(candidate)
	return &out, nil
}

func (h *SavePricingPeriodHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *SavePricingPeriodHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

var (
	_ commands.Handler[SavePricingPeriodCommand, *dto.PricingPeriod] = (*SavePricingPeriodHandler)(nil)
	_ commands.PropertyScoped                                        = SavePricingPeriodCommand{}
)
