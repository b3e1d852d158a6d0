package support

import (
	"context"
	"log/slog"

	"rentcalc/internal/app/policies"
	"rentcalc/internal/app/uow"
	"rentcalc/internal/domain/property"
)

// SnapshotLoader reads a property's reservations and pricing periods through
// the snapshot cache, falling back to the store on a miss or a cache error.
type SnapshotLoader struct {
	UoWFactory uow.UoWFactory
	Cache      policies.SnapshotCache
	Logger     *slog.Logger
}

func (l SnapshotLoader) Load(ctx context.Context, id property.ID) (policies.PropertySnapshot, error) {
	if l.Cache == nil {
		return l.read(ctx, id)
	}
	snap, found, err := l.Cache.Get(ctx, id)
	switch {
	case err != nil:
		l.warn(ctx, "snapshot cache read failed", id, err)
	case found:
		return snap, nil
	}

	// The generation is taken before the store read so a write that commits
	// and invalidates in between makes the Put below a no-op.
	gen, genErr := l.Cache.Generation(ctx, id)
	snap, err = l.read(ctx, id)
	if err != nil {
		return policies.PropertySnapshot{}, err
	}
	if genErr != nil {
		l.warn(ctx, "snapshot cache read failed", id, genErr)
		return snap, nil
	}
	if _, err := l.Cache.Put(ctx, snap, gen); err != nil {
		l.warn(ctx, "snapshot cache write failed", id, err)
	}
	return snap, nil
}

func (l SnapshotLoader) read(ctx context.Context, id property.ID) (policies.PropertySnapshot, error) {
	unit, execCtx, cleanup, err := BeginReadOnlyUnit(ctx, l.UoWFactory)
	if err != nil {
		return policies.PropertySnapshot{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	calendar, err := unit.Calendars().Calendar(execCtx, id)
	if err != nil {
		return policies.PropertySnapshot{}, err
	}
	periods, err := unit.PricingPeriods().ListByProperty(execCtx, id)
	if err != nil {
		return policies.PropertySnapshot{}, err
	}
	return policies.PropertySnapshot{
		PropertyID:     id,
		Reservations:   calendar.Intervals(),
		PricingPeriods: periods,
	}, nil
}

func (l SnapshotLoader) warn(ctx context.Context, msg string, id property.ID, err error) {
	if l.Logger != nil {
		l.Logger.WarnContext(ctx, msg, "property_id", id, "error", err)
	}
}
