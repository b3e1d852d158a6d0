package availability

import (
	"context"
	"time"

	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/handlers/support"
	"rentcalc/internal/app/outbox"
	"rentcalc/internal/app/uow"
	"rentcalc/internal/domain/property"
)

const releaseKey = "availability.release"

type ReleaseCommand struct {
	PropertyID string `validate:"required"`
	Reference  string `validate:"required"`
}

func (c ReleaseCommand) Key() string { return releaseKey }

func (c ReleaseCommand) PropertyKey() string { return c.PropertyID }

type ReleaseHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *ReleaseHandler) Handle(ctx context.Context, cmd ReleaseCommand) (struct{}, error) {
	id, err := property.ParseID(cmd.PropertyID)
	if err != nil {
		return struct{}{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	return struct{}{}, support.RunInUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		calendar, err := unit.Calendars().Calendar(ctx, id)
		if err != nil {
			return err
		}
		if err := calendar.Release(cmd.Reference, now); err != nil {
			return err
		}
		if err := unit.Calendars().Save(ctx, calendar); err != nil {
			return err
		}
		return outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, calendar.DrainEvents())
	})
}

var (
	_ commands.Handler[ReleaseCommand, struct{}] = (*ReleaseHandler)(nil)
	_ commands.PropertyScoped                    = ReleaseCommand{}
)
