package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcalc/internal/app/middleware"
	appoutbox "rentcalc/internal/app/outbox"
	"rentcalc/internal/app/policies"
	"rentcalc/internal/app/uow"
	domainavailability "rentcalc/internal/domain/availability"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/property"
	"rentcalc/internal/domain/shared/daterange"
)

const villa = property.ID("villa-1")

func stay(checkIn, checkOut string) daterange.DateRange {
	return daterange.DateRange{CheckIn: daterange.MustParse(checkIn), CheckOut: daterange.MustParse(checkOut)}
}

func TestUnitCommitAppliesCalendarChanges(t *testing.T) {
	ctx := context.Background()
	factory := Factory{Store: NewStore()}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	cal, err := unit.Calendars().Calendar(ctx, villa)
	require.NoError(t, err)
	require.NoError(t, cal.Reserve(stay("2025-06-05", "2025-06-10"), "r-1", time.Now()))
	require.NoError(t, unit.Calendars().Save(ctx, cal))
	require.NoError(t, unit.Commit(ctx))

	reader, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer reader.Rollback(ctx)
	stored, err := reader.Calendars().Calendar(ctx, villa)
	require.NoError(t, err)
	assert.Len(t, stored.Reservations, 1)
	assert.Equal(t, int64(1), stored.Version)
}

func TestUnitRollbackDiscardsChanges(t *testing.T) {
	ctx := context.Background()
	factory := Factory{Store: NewStore()}

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	cal, _ := unit.Calendars().Calendar(ctx, villa)
	require.NoError(t, cal.Reserve(stay("2025-06-05", "2025-06-10"), "r-1", time.Now()))
	require.NoError(t, unit.Calendars().Save(ctx, cal))
	require.NoError(t, unit.Rollback(ctx))

	next, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	stored, _ := next.Calendars().Calendar(ctx, villa)
	assert.Empty(t, stored.Reservations)
	require.NoError(t, next.Rollback(ctx))
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	ctx := context.Background()
	unit, err := Factory{Store: NewStore()}.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)

	err = unit.Calendars().Save(ctx, domainavailability.NewCalendar(villa))
	assert.ErrorIs(t, err, ErrReadOnlyUnit)
}

func TestPricingPeriodsKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	factory := Factory{Store: NewStore()}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	repo := unit.PricingPeriods()
	for i, id := range []domainpricing.PeriodID{"b", "a", "c"} {
		p := domainpricing.Period{ID: id, PropertyID: villa, NightlyRate: decimal.NewFromInt(100), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Save(ctx, &p))
	}
	other := domainpricing.Period{ID: "x", PropertyID: "other", CreatedAt: base}
	require.NoError(t, repo.Save(ctx, &other))

	updated := domainpricing.Period{ID: "b", PropertyID: villa, NightlyRate: decimal.NewFromInt(90), CreatedAt: base}
	require.NoError(t, repo.Save(ctx, &updated))
	require.NoError(t, unit.Commit(ctx))

	reader, _ := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	defer reader.Rollback(ctx)
	periods, err := reader.PricingPeriods().ListByProperty(ctx, villa)
	require.NoError(t, err)
	require.Len(t, periods, 3)
	assert.Equal(t, []domainpricing.PeriodID{"b", "a", "c"}, []domainpricing.PeriodID{periods[0].ID, periods[1].ID, periods[2].ID})
	assert.True(t, periods[0].NightlyRate.Equal(decimal.NewFromInt(90)))

	_, err = reader.PricingPeriods().ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainpricing.ErrPeriodNotFound)
}

func TestPricingPeriodDelete(t *testing.T) {
	ctx := context.Background()
	factory := Factory{Store: NewStore()}

	unit, _ := factory.Begin(ctx, uow.TxOptions{})
	p := domainpricing.Period{ID: "p-1", PropertyID: villa}
	require.NoError(t, unit.PricingPeriods().Save(ctx, &p))
	require.NoError(t, unit.PricingPeriods().Delete(ctx, "p-1"))
	assert.ErrorIs(t, unit.PricingPeriods().Delete(ctx, "p-1"), domainpricing.ErrPeriodNotFound)
	require.NoError(t, unit.Commit(ctx))
}

func TestOutboxHoldsRecordsUntilCommit(t *testing.T) {
	ctx := context.Background()
	factory := Factory{Store: NewStore()}
	box := NewOutbox(nil)

	committed, _ := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, box.Add(uow.Bind(ctx, committed), appoutbox.EventRecord{ID: "1", Name: "calendar.reservation_confirmed"}))
	assert.Equal(t, 0, box.Pending())
	require.NoError(t, committed.Commit(ctx))
	assert.Equal(t, 1, box.Pending())

	aborted, _ := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, box.Add(uow.Bind(ctx, aborted), appoutbox.EventRecord{ID: "2"}))
	require.NoError(t, aborted.Rollback(ctx))

	require.NoError(t, box.Flush(ctx))
	published := box.Published()
	require.Len(t, published, 1)
	assert.Equal(t, "1", published[0].ID)
	assert.Equal(t, 0, box.Pending())
}

func TestIdempotencyStoreExpiresRecords(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore(time.Hour)
	store.Now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", Command: "availability.reserve", OccurredAt: now}))
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Hour)
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshotCacheTTLAndInvalidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache := NewSnapshotCache(time.Minute)
	cache.Now = func() time.Time { return now }

	snap := policies.PropertySnapshot{
		PropertyID:   villa,
		Reservations: []domainavailability.ReservedInterval{{Start: daterange.MustParse("2025-06-05"), End: daterange.MustParse("2025-06-10")}},
	}
	put := func() {
		gen, err := cache.Generation(ctx, villa)
		require.NoError(t, err)
		stored, err := cache.Put(ctx, snap, gen)
		require.NoError(t, err)
		require.True(t, stored)
	}
	put()

	got, found, err := cache.Get(ctx, villa)
	require.NoError(t, err)
	require.True(t, found)
	got.Reservations[0].Reference = "mutated"
	again, _, _ := cache.Get(ctx, villa)
	assert.Empty(t, again.Reservations[0].Reference)

	now = now.Add(2 * time.Minute)
	_, found, _ = cache.Get(ctx, villa)
	assert.False(t, found)

	put()
	require.NoError(t, cache.Invalidate(ctx, villa))
	_, found, _ = cache.Get(ctx, villa)
	assert.False(t, found)

	put()
	require.NoError(t, cache.Flush(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestSnapshotCacheDropsPutAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := NewSnapshotCache(0)
	stale := policies.PropertySnapshot{PropertyID: villa}

	gen, err := cache.Generation(ctx, villa)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, villa))
	stored, err := cache.Put(ctx, stale, gen)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.Equal(t, 0, cache.Len())

	gen, err = cache.Generation(ctx, villa)
	require.NoError(t, err)
	stored, err = cache.Put(ctx, stale, gen)
	require.NoError(t, err)
	assert.True(t, stored)

	other, err := cache.Generation(ctx, "cabin-2")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, villa))
	stored, err = cache.Put(ctx, policies.PropertySnapshot{PropertyID: "cabin-2"}, other)
	require.NoError(t, err)
	assert.True(t, stored)
}
