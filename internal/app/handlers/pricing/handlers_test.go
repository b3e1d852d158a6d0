package pricing

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcalc/internal/app/handlers/support"
	domainpricing "rentcalc/internal/domain/pricing"
	"rentcalc/internal/domain/shared/daterange"
	"rentcalc/internal/infra/storage/memory"
)

type fixture struct {
	box    *memory.Outbox
	loader support.SnapshotLoader
	save   *SavePricingPeriodHandler
	delete *DeletePricingPeriodHandler
}

func newFixture() fixture {
	factory := memory.Factory{Store: memory.NewStore()}
	box := memory.NewOutbox(nil)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seq := 0
	return fixture{
		box:    box,
		loader: support.SnapshotLoader{UoWFactory: factory, Cache: memory.NewSnapshotCache(0)},
		save: &SavePricingPeriodHandler{
			UoWFactory: factory,
			Outbox:     box,
			Now: func() time.Time {
				clock = clock.Add(time.Minute)
				return clock
			},
			IDGenerator: func() string {
				seq++
				return "period-" + strconv.Itoa(seq)
			},
		},
		delete: &DeletePricingPeriodHandler{UoWFactory: factory, Outbox: box},
	}
}

func datePtr(s string) *daterange.Date {
	d := daterange.MustParse(s)
	return &d
}

func TestSaveAndQuote(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	saved, err := f.save.Handle(ctx, SavePricingPeriodCommand{
		PropertyID:            "villa-1",
		NightlyRate:           decimal.NewFromInt(100),
		Currency:              "eur",
		WeekendPremiumPercent: decimal.NewFromInt(20),
		WeekendPremiumActive:  true,
		WeeklyDiscountPercent: decimal.NewFromInt(10),
		WeeklyDiscountActive:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "period-1", saved.ID)
	assert.Equal(t, "EUR", saved.Currency)
	assert.Equal(t, domainpricing.DefaultMinDaysForWeekly, saved.MinDaysForWeekly)

	quote := &QuotePriceHandler{Snapshots: f.loader}
	got, err := quote.Handle(ctx, QuotePriceQuery{PropertyID: "villa-1", CheckIn: daterange.MustParse("2025-06-02"), CheckOut: daterange.MustParse("2025-06-09")})
	require.NoError(t, err)

	// 5 weekdays at 90 plus a weekend at 108 per night
	assert.True(t, got.Total.Equal(decimal.NewFromInt(666)), got.Total.String())
	assert.Equal(t, "EUR", got.Currency)
	assert.Len(t, got.Breakdown, 7)
}

func TestSaveRejectsOverlappingPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-1", NightlyRate: decimal.NewFromInt(100), StartDate: datePtr("2025-06-01"), EndDate: datePtr("2025-06-30")})
	require.NoError(t, err)
	_, err = f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-1", NightlyRate: decimal.NewFromInt(120), StartDate: datePtr("2025-06-30"), EndDate: datePtr("2025-07-15")})
	assert.ErrorIs(t, err, domainpricing.ErrOverlappingPeriods)

	_, err = f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-2", NightlyRate: decimal.NewFromInt(120), StartDate: datePtr("2025-06-30"), EndDate: datePtr("2025-07-15")})
	assert.NoError(t, err)
}

func TestSaveUpdatesExistingPeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-1", NightlyRate: decimal.NewFromInt(100)})
	require.NoError(t, err)
	updated, err := f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-1", PeriodID: created.ID, NightlyRate: decimal.NewFromInt(80)})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	list, err := (&ListPricingPeriodsHandler{Snapshots: f.loader}).Handle(ctx, ListPricingPeriodsQuery{PropertyID: "villa-1"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].NightlyRate.Equal(decimal.NewFromInt(80)))

	_, err = f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-2", PeriodID: created.ID, NightlyRate: decimal.NewFromInt(80)})
	assert.ErrorIs(t, err, domainpricing.ErrPeriodNotFound)
}

func TestSaveRejectsInvalidPeriod(t *testing.T) {
	f := newFixture()

	_, err := f.save.Handle(context.Background(), SavePricingPeriodCommand{PropertyID: "villa-1", NightlyRate: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domainpricing.ErrInvalidPeriod)
	assert.Equal(t, 0, f.box.Pending())
}

func TestDeletePeriod(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	created, err := f.save.Handle(ctx, SavePricingPeriodCommand{PropertyID: "villa-1", NightlyRate: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = f.delete.Handle(ctx, DeletePricingPeriodCommand{PropertyID: "villa-2", PeriodID: created.ID})
	assert.ErrorIs(t, err, domainpricing.ErrPeriodNotFound)

	_, err = f.delete.Handle(ctx, DeletePricingPeriodCommand{PropertyID: "villa-1", PeriodID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, f.box.Pending())

	_, err = (&QuotePriceHandler{Snapshots: support.SnapshotLoader{UoWFactory: f.save.UoWFactory}}).Handle(ctx, QuotePriceQuery{
		PropertyID: "villa-1",
		CheckIn:    daterange.MustParse("2025-06-02"),
		CheckOut:   daterange.MustParse("2025-06-03"),
	})
	assert.ErrorIs(t, err, domainpricing.ErrNoPricingAvailable)
}
