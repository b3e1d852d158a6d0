package availability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/middleware"
	"rentcalc/internal/app/outbox"
	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/domain/shared/events"
)

const reserveKey = "availability.reserve"

// ReserveCommand records a confirmed stay. Availability is checked again inside
// the write transaction, so two racing requests cannot both succeed.
type ReserveCommand struct {
	PropertyID      string         `validate:"required"`
	Reference       string         `validate:"omitempty,max=128"`
	CheckIn         daterange.Date `validate:"required"`
	CheckOut        daterange.Date `validate:"required"`
	IdempotencyKeyV string
}

func (c ReserveCommand) Key() string { return reserveKey }

func (c ReserveCommand) PropertyKey() string { return c.PropertyID }

func (c ReserveCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ReserveCommand) ResultPrototype() any { return &dto.Reservation{} }

type ReserveHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *ReserveHandler) Handle(ctx context.Context, cmd ReserveCommand) (*dto.Reservation, error) {
	stay, err := daterange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	id, err := property.ParseID(cmd.PropertyID)
	if err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(cmd.Reference)
	if reference == "" {
		reference = uuid.NewString()
	}

	var refused []events.DomainEvent
	err = support.RunInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		calendar, err := unit.Calendars().Calendar(ctx, id)
		if err != nil {
			return err
		}
		if err := calendar.Reserve(stay, reference, h.now()); err != nil {
			if errors.Is(err, domainavailability.ErrOverlappingRange) {
				refused = calendar.DrainEvents()
			}
			return err
		}
		if err := unit.Calendars().Save(ctx, calendar); err != nil {
			return err
		}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, calendar.DrainEvents())
	})
	if err != nil {
		if len(refused) > 0 {
			h.publishRefused(ctx, id, reference, stay, refused)
		}
		return nil, err
	}

	return &dto.Reservation{
		PropertyID: string(id),
		Reference:  reference,
		CheckIn:    stay.CheckIn,
		CheckOut:   stay.CheckOut,
		Nights:     stay.Nights(),
	}, nil
}

// publishRefused records the overbooking events outside the unit that is about
// to roll back. Failures are logged; the caller still gets ErrOverlappingRange.
func (h *ReserveHandler) publishRefused(ctx context.Context, id property.ID, reference string, stay daterange.DateRange, evs []events.DomainEvent) {
	if h.Logger != nil {
		h.Logger.WarnContext(ctx, "overbooking prevented", "property_id", id, "reference", reference, "range", stay.String())
	}
	if h.Outbox == nil {
		return
	}
	outside := uow.Detach(ctx)
	err := outbox.RecordDomainEvents(outside, h.Outbox, h.Encoder, evs)
	if err == nil {
		err = h.Outbox.Flush(outside)
	}
	if err != nil && h.Logger != nil {
		h.Logger.ErrorContext(ctx, "overbooking event not recorded", "property_id", id, "error", err)
	}
}

func (h *ReserveHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var (
	_ commands.Handler[ReserveCommand, *dto.Reservation] = (*ReserveHandler)(nil)
	_ middleware.IdempotentCommand                       = ReserveCommand{}
	_ commands.PropertyScoped                            = ReserveCommand{}
)
