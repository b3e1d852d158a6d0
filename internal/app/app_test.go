package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcalc/internal/app"
	"rentcalc/internal/app/commands"
	"rentcalc/internal/app/dto"
	availabilityapp "rentcalc/internal/app/handlers/availability"
	pricingapp "rentcalc/internal/app/handlers/pricing"
	"rentcalc/internal/app/policies"
	"rentcalc/internal/app/queries"
	domainavailability "rentcalc/internal/domain/availability"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/infra/storage/memory"
	"rentcalc/internal/infra/validation"
)

type harness struct {
	app   app.App
	box   *memory.Outbox
	cache *memory.SnapshotCache
}

func newHarness() harness {
	box := memory.NewOutbox(nil)
	cache := memory.NewSnapshotCache(time.Hour)
	a := app.New(app.Deps{
		UoWFactory:  memory.Factory{Store: memory.NewStore()},
		Outbox:      box,
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Cache:       cache,
		Validator:   validation.New(),
	})
	return harness{app: a, box: box, cache: cache}
}

func d(s string) daterange.Date { return daterange.MustParse(s) }

func reserve(ctx context.Context, h harness, cmd availabilityapp.ReserveCommand) (*dto.Reservation, error) {
	return commands.Dispatch[availabilityapp.ReserveCommand, *dto.Reservation](ctx, h.app.Commands, cmd)
}

func check(ctx context.Context, t *testing.T, h harness, checkIn, checkOut string) bool {
	t.Helper()
	verdict, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.AvailabilityVerdict](ctx, h.app.Queries,
		availabilityapp.CheckAvailabilityQuery{PropertyID: "villa-1", CheckIn: d(checkIn), CheckOut: d(checkOut)})
	require.NoError(t, err)
	return verdict.Available
}

func TestReserveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	cmd := availabilityapp.ReserveCommand{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10"), IdempotencyKeyV: "req-1"}

	first, err := reserve(ctx, h, cmd)
	require.NoError(t, err)
	second, err := reserve(ctx, h, cmd)
	require.NoError(t, err)

	assert.Equal(t, first.Reference, second.Reference)
	assert.Len(t, h.box.Published(), 1)
}

func TestReserveInvalidatesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	assert.True(t, check(ctx, t, h, "2025-06-05", "2025-06-10"))
	assert.Equal(t, 1, h.cache.Len())

	_, err := reserve(ctx, h, availabilityapp.ReserveCommand{PropertyID: "villa-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	assert.Equal(t, 0, h.cache.Len())

	assert.False(t, check(ctx, t, h, "2025-06-08", "2025-06-12"))
	assert.True(t, check(ctx, t, h, "2025-06-10", "2025-06-12"))
}

func TestValidationRejectsMissingFields(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	_, err := reserve(ctx, h, availabilityapp.ReserveCommand{CheckIn: d("2025-06-05")})
	assert.ErrorIs(t, err, validation.ErrInvalidMessage)
	assert.Empty(t, h.box.Published())
}

func TestQuoteAfterSavingPeriods(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	start, end := d("2025-06-01"), d("2025-06-30")

	_, err := commands.Dispatch[pricingapp.SavePricingPeriodCommand, *dto.PricingPeriod](ctx, h.app.Commands, pricingapp.SavePricingPeriodCommand{
		PropertyID:             "villa-1",
		NightlyRate:            decimal.NewFromInt(100),
		MonthlyDiscountPercent: decimal.NewFromInt(20),
		MonthlyDiscountActive:  true,
		WeeklyDiscountPercent:  decimal.NewFromInt(10),
		WeeklyDiscountActive:   true,
		StartDate:              &start,
		EndDate:                &end,
	})
	require.NoError(t, err)

	quote, err := queries.Ask[pricingapp.QuotePriceQuery, dto.PriceQuote](ctx, h.app.Queries, pricingapp.QuotePriceQuery{PropertyID: "villa-1", CheckIn: d("2025-06-01"), CheckOut: d("2025-06-08")})
	require.NoError(t, err)
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(630)), quote.Total.String())

	_, err = queries.Ask[pricingapp.QuotePriceQuery, dto.PriceQuote](ctx, h.app.Queries, pricingapp.QuotePriceQuery{PropertyID: "villa-1", CheckIn: d("2025-06-28"), CheckOut: d("2025-07-02")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-07-01")
}

// racingCache runs beforePut once, right before the first snapshot is stored.
type racingCache struct {
	*memory.SnapshotCache
	beforePut func()
}

func (c *racingCache) Put(ctx context.Context, snap policies.PropertySnapshot, generation uint64) (bool, error) {
	if hook := c.beforePut; hook != nil {
		c.beforePut = nil
		hook()
	}
	return c.SnapshotCache.Put(ctx, snap, generation)
}

func TestSnapshotLoadedBeforeWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	cache := &racingCache{SnapshotCache: memory.NewSnapshotCache(time.Hour)}
	a := app.New(app.Deps{
		UoWFactory:  memory.Factory{Store: memory.NewStore()},
		Outbox:      memory.NewOutbox(nil),
		Idempotency: memory.NewIdempotencyStore(time.Hour),
		Cache:       cache,
		Validator:   validation.New(),
	})
	start, end := d("2025-06-01"), d("2025-06-30")
	save := func(rate int64) {
		_, err := commands.Dispatch[pricingapp.SavePricingPeriodCommand, *dto.PricingPeriod](ctx, a.Commands, pricingapp.SavePricingPeriodCommand{
			PropertyID:  "villa-1",
			PeriodID:    "p-1",
			NightlyRate: decimal.NewFromInt(rate),
			StartDate:   &start,
			EndDate:     &end,
		})
		require.NoError(t, err)
	}
	quote := func() decimal.Decimal {
		q, err := queries.Ask[pricingapp.QuotePriceQuery, dto.PriceQuote](ctx, a.Queries, pricingapp.QuotePriceQuery{PropertyID: "villa-1", CheckIn: d("2025-06-02"), CheckOut: d("2025-06-03")})
		require.NoError(t, err)
		return q.Total
	}

	save(100)
	cache.beforePut = func() { save(200) }

	first := quote()
	assert.True(t, first.Equal(decimal.NewFromInt(100)), first.String())
	assert.Equal(t, 0, cache.Len())

	second := quote()
	assert.True(t, second.Equal(decimal.NewFromInt(200)), second.String())
	assert.Equal(t, 1, cache.Len())
}

func TestOverbookingEventPublishedDespiteRollback(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	_, err := reserve(ctx, h, availabilityapp.ReserveCommand{PropertyID: "villa-1", Reference: "r-1", CheckIn: d("2025-06-05"), CheckOut: d("2025-06-10")})
	require.NoError(t, err)
	_, err = reserve(ctx, h, availabilityapp.ReserveCommand{PropertyID: "villa-1", Reference: "r-2", CheckIn: d("2025-06-07"), CheckOut: d("2025-06-09")})
	require.ErrorIs(t, err, domainavailability.ErrOverlappingRange)

	published := h.box.Published()
	require.Len(t, published, 2)
	assert.Equal(t, "calendar.reservation_confirmed", published[0].Name)
	assert.Equal(t, "calendar.overbooking_prevented", published[1].Name)
	assert.Contains(t, string(published[1].Payload), `"reference":"r-2"`)
	assert.True(t, check(ctx, t, h, "2025-06-10", "2025-06-12"))
}
